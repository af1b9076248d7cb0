// Package export writes annotation sets as training-data files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"video-annotator/internal/models"
	"video-annotator/shared/timecode"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatCOCO Format = "coco"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatCOCO:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, csv or coco)", s)
	}
}

// Entry is one video's annotations.
type Entry struct {
	VideoKey string
	Set      *models.AnnotationSet
}

// Write encodes entries to w in the given format.
func Write(w io.Writer, format Format, entries []Entry) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, entries)
	case FormatCSV:
		return writeCSV(w, entries)
	case FormatCOCO:
		return writeCOCO(w, entries)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

type jsonEntry struct {
	Video string `json:"video"`
	*models.AnnotationSet
}

func writeJSON(w io.Writer, entries []Entry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		if e.Set == nil {
			continue
		}
		out = append(out, jsonEntry{Video: e.VideoKey, AnnotationSet: e.Set})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"video", "segment", "kind", "label", "start", "end", "start_timecode", "end_timecode", "confidence", "scene_classification",
}

// writeCSV emits one row per detected entity.
func writeCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, e := range entries {
		if e.Set == nil {
			continue
		}
		for i, seg := range e.Set.Segments {
			for _, kind := range []models.EntityKind{models.EntityObject, models.EntityAction} {
				for _, ent := range *seg.Entities(kind) {
					row := []string{
						e.VideoKey,
						strconv.Itoa(i),
						string(kind),
						ent.Label,
						formatSeconds(ent.StartTime),
						formatSeconds(ent.EndTime),
						timecode.FormatClock(ent.StartTime),
						timecode.FormatClock(ent.EndTime),
						formatConfidence(ent.ConfidenceScore),
						seg.SceneClassification,
					}
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("failed to write csv row: %w", err)
					}
				}
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv export: %w", err)
	}
	return nil
}

type cocoDataset struct {
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

// cocoImage stands for one segment; the frame is the segment start.
type cocoImage struct {
	ID        int     `json:"id"`
	FileName  string  `json:"file_name"`
	Video     string  `json:"video"`
	Timestamp float64 `json:"timestamp"`
	Duration  float64 `json:"duration"`
	Scene     string  `json:"scene_classification,omitempty"`
}

type cocoAnnotation struct {
	ID         int       `json:"id"`
	ImageID    int       `json:"image_id"`
	CategoryID int       `json:"category_id"`
	BBox       []float64 `json:"bbox"`
	Area       float64   `json:"area"`
	IsCrowd    int       `json:"iscrowd"`
	Score      *float64  `json:"score,omitempty"`
	Start      float64   `json:"start_time"`
	End        float64   `json:"end_time"`
}

type cocoCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// writeCOCO builds a COCO-style dataset. Bounding boxes are empty because
// the annotations are temporal only.
func writeCOCO(w io.Writer, entries []Entry) error {
	dataset := cocoDataset{
		Images:      []cocoImage{},
		Annotations: []cocoAnnotation{},
		Categories:  []cocoCategory{},
	}

	categoryIDs := make(map[string]int)
	category := func(kind models.EntityKind, label string) int {
		key := string(kind) + "\x00" + label
		if id, ok := categoryIDs[key]; ok {
			return id
		}
		id := len(dataset.Categories) + 1
		categoryIDs[key] = id
		dataset.Categories = append(dataset.Categories, cocoCategory{ID: id, Name: label, Supercategory: string(kind)})
		return id
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].VideoKey < sorted[j].VideoKey })

	for _, e := range sorted {
		if e.Set == nil {
			continue
		}
		for _, seg := range e.Set.Segments {
			imageID := len(dataset.Images) + 1
			dataset.Images = append(dataset.Images, cocoImage{
				ID:        imageID,
				FileName:  fmt.Sprintf("%s#t=%s", e.VideoKey, formatSeconds(seg.StartTime)),
				Video:     e.VideoKey,
				Timestamp: seg.StartTime,
				Duration:  seg.EndTime - seg.StartTime,
				Scene:     seg.SceneClassification,
			})

			for _, kind := range []models.EntityKind{models.EntityObject, models.EntityAction} {
				for _, ent := range *seg.Entities(kind) {
					dataset.Annotations = append(dataset.Annotations, cocoAnnotation{
						ID:         len(dataset.Annotations) + 1,
						ImageID:    imageID,
						CategoryID: category(kind, ent.Label),
						BBox:       []float64{},
						Score:      ent.ConfidenceScore,
						Start:      ent.StartTime,
						End:        ent.EndTime,
					})
				}
			}
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dataset); err != nil {
		return fmt.Errorf("failed to encode coco export: %w", err)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatConfidence(c *float64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatFloat(*c, 'f', 2, 64)
}

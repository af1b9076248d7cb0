package main

import (
	"fmt"
	"io"
	"strings"

	"video-annotator/internal/models"
	"video-annotator/shared/annotation"
	"video-annotator/shared/timecode"
	"video-annotator/shared/timeline"
)

func writeSet(w io.Writer, key string, set *models.AnnotationSet) {
	fmt.Fprintf(w, "%s: %d segments, confidence %.2f (%s)\n",
		key, len(set.Segments), set.OverallConfidence, annotation.Classify(set.OverallConfidence))

	// Segments print in timeline order but keep their stored index for edits.
	for _, b := range timeline.SegmentBounds(set) {
		seg := set.Segments[b.SegmentIndex]
		fmt.Fprintf(w, "\n[%d] %s - %s  %s%s\n", b.SegmentIndex,
			timecode.FormatClock(seg.StartTime), timecode.FormatClock(seg.EndTime),
			seg.SceneClassification, formatConfidence(seg.ConfidenceScore))
		if seg.Description != "" {
			fmt.Fprintf(w, "    %s\n", seg.Description)
		}
		writeEntities(w, "objects", seg.DetectedObjects)
		writeEntities(w, "actions", seg.DetectedActions)
	}

	if labels := timeline.Labels(set); len(labels) > 0 {
		fmt.Fprintf(w, "\nLabels: %s\n", strings.Join(labels, ", "))
	}
}

func writeEntities(w io.Writer, name string, entities []models.DetectedEntity) {
	if len(entities) == 0 {
		return
	}
	fmt.Fprintf(w, "    %s:\n", name)
	for i, e := range entities {
		fmt.Fprintf(w, "      %d. %s (%s - %s)%s\n", i, e.Label,
			timecode.FormatClock(e.StartTime), timecode.FormatClock(e.EndTime), formatConfidence(e.ConfidenceScore))
	}
}

// writeLanes prints one row per tag with its lane and pixel offset.
func writeLanes(w io.Writer, set *models.AnnotationSet) {
	placements := timeline.AssignLanes(timeline.Flatten(set))
	fmt.Fprintf(w, "%d tags in %d lanes\n", len(placements), timeline.LaneCount(placements))
	for _, p := range placements {
		fmt.Fprintf(w, "lane %d (+%dpx)  %s - %s  %s %s\n", p.Lane, timeline.LaneOffset(p.Lane),
			timecode.FormatClock(p.Item.Start), timecode.FormatClock(p.Item.End), p.Item.Kind, p.Item.Label)
	}
}

func writeEditResult(w io.Writer, res annotation.EditResult) {
	fmt.Fprintf(w, "Saved: overall confidence %.2f (%s)\n", res.Overall, res.Readiness)
	if res.Warning != nil {
		fmt.Fprintf(w, "Warning: change kept in memory only: %v\n", res.Warning)
	}
}

func formatConfidence(c *float64) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("  [%.0f%%]", *c*100)
}

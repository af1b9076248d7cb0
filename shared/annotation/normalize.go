// Package annotation turns raw analysis output into annotation segments and
// keeps the derived confidence and readiness consistent through manual edits.
package annotation

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
	"strings"

	"video-annotator/internal/models"
	"video-annotator/shared/timecode"

	"github.com/tidwall/gjson"
)

// Outcome reports which stage of the normalizer produced the segments.
type Outcome int

const (
	// Empty means nothing usable was found.
	Empty Outcome = iota
	// Structured means the segments came from a JSON document.
	Structured
	// Recovered means the segments were scraped from plain text.
	Recovered
)

func (o Outcome) String() string {
	switch o {
	case Structured:
		return "structured"
	case Recovered:
		return "recovered"
	default:
		return "empty"
	}
}

// Result is the output of a normalization pass.
type Result struct {
	Outcome  Outcome
	Segments []models.AnnotationSegment
}

var (
	startKeys = []string{"start_timestamp", "start_time", "start", "timestamp"}
	endKeys   = []string{"end_timestamp", "end_time", "end", "timestamp"}
)

// Normalize accepts raw response text or an already decoded JSON value.
// It never fails; the worst case is an Empty result.
func Normalize(data any) Result {
	switch v := data.(type) {
	case nil:
		return Result{Outcome: Empty}
	case string:
		return NormalizeText(v)
	case []byte:
		return NormalizeText(string(v))
	case json.RawMessage:
		return NormalizeText(string(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			log.Printf("Warning: cannot encode analysis response of type %T: %v", v, err)
			return Result{Outcome: Empty}
		}
		return fromDocument(gjson.ParseBytes(raw))
	}
}

// NormalizeText parses a model response that may be wrapped in markdown
// fences or prose. When no JSON document can be found it falls back to the
// plain-text block parser.
func NormalizeText(text string) Result {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return Result{Outcome: Empty}
	}

	if doc, ok := parseDocument(text); ok {
		return fromDocument(doc)
	}

	segments := parsePlainText(text)
	if len(segments) == 0 {
		return Result{Outcome: Empty}
	}
	return Result{Outcome: Recovered, Segments: segments}
}

func parseDocument(text string) (gjson.Result, bool) {
	candidates := envelopeCandidates(text)
	for _, candidate := range candidates {
		if gjson.Valid(candidate) {
			return gjson.Parse(candidate), true
		}
	}
	for _, candidate := range candidates {
		for _, repaired := range repairCandidates(candidate) {
			if gjson.Valid(repaired) {
				log.Printf("Warning: analysis response was malformed JSON, parsed after repair")
				return gjson.Parse(repaired), true
			}
		}
	}
	return gjson.Result{}, false
}

func fromDocument(doc gjson.Result) Result {
	var segments []models.AnnotationSegment
	for _, raw := range resolveSegments(doc) {
		if !raw.IsObject() {
			continue
		}
		seg := decodeSegment(raw)
		recoverFields(&seg)
		finalize(&seg)
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return Result{Outcome: Empty}
	}
	return Result{Outcome: Structured, Segments: segments}
}

// resolveSegments finds the segment list inside a parsed document.
func resolveSegments(doc gjson.Result) []gjson.Result {
	if doc.IsArray() {
		return doc.Array()
	}
	if !doc.IsObject() {
		return nil
	}

	for _, key := range []string{"annotations", "segments"} {
		v := doc.Get(key)
		switch {
		case v.IsArray():
			return v.Array()
		case v.IsObject():
			return []gjson.Result{v}
		}
	}
	if v := doc.Get("scene"); v.IsObject() {
		return []gjson.Result{v}
	}
	if v := doc.Get("scenes"); v.IsArray() {
		return v.Array()
	}
	if doc.Get("detected_objects").Exists() || doc.Get("detected_actions").Exists() || doc.Get("description").Exists() {
		return []gjson.Result{doc}
	}
	return nil
}

func decodeSegment(v gjson.Result) models.AnnotationSegment {
	seg := models.AnnotationSegment{
		StartTime:   unset,
		EndTime:     unset,
		Description: firstString(v, "description", "summary", "text"),
	}

	if start, ok := timeField(v, startKeys...); ok {
		seg.StartTime = start
	}
	if end, ok := timeField(v, endKeys...); ok {
		seg.EndTime = end
	}
	if ts := v.Get("timestamp"); ts.Type == gjson.String {
		if start, end, ok := timeRange(ts.String()); ok {
			if !v.Get("start_timestamp").Exists() && !v.Get("start_time").Exists() {
				seg.StartTime = start
			}
			if !v.Get("end_timestamp").Exists() && !v.Get("end_time").Exists() {
				seg.EndTime = end
			}
		}
	}

	seg.SceneClassification = sceneField(v)
	seg.DetectedObjects = entityList(v.Get("detected_objects"), models.EntityObject)
	seg.DetectedActions = entityList(v.Get("detected_actions"), models.EntityAction)
	seg.ConfidenceScore = confidenceField(v, "confidence_score", "overall_confidence", "confidence")
	return seg
}

func entityList(v gjson.Result, kind models.EntityKind) []models.DetectedEntity {
	if !v.Exists() {
		return nil
	}
	items := []gjson.Result{v}
	if v.IsArray() {
		items = v.Array()
	}

	nameKey := "object"
	if kind == models.EntityAction {
		nameKey = "action"
	}

	var entities []models.DetectedEntity
	for _, item := range items {
		entity := models.DetectedEntity{StartTime: unset, EndTime: unset}
		switch {
		case item.Type == gjson.String:
			entity.Label = strings.TrimSpace(item.String())
		case item.IsObject():
			entity.Label = firstString(item, nameKey, "label", "name")
			entity.ConfidenceScore = confidenceField(item, "confidence_score", "confidence")
			if start, ok := timeField(item, startKeys...); ok {
				entity.StartTime = start
			}
			if end, ok := timeField(item, endKeys...); ok {
				entity.EndTime = end
			}
		}
		if entity.Label == "" {
			continue
		}
		entities = append(entities, entity)
	}
	return entities
}

func sceneField(v gjson.Result) string {
	for _, key := range []string{"scene_classification", "scene", "classification"} {
		r := v.Get(key)
		switch {
		case r.Type == gjson.String:
			if s := strings.TrimSpace(r.String()); s != "" {
				return s
			}
		case r.IsArray():
			var parts []string
			for _, p := range r.Array() {
				if s := strings.TrimSpace(p.String()); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", ")
			}
		}
	}
	return ""
}

func firstString(v gjson.Result, keys ...string) string {
	for _, key := range keys {
		r := v.Get(key)
		if r.Type == gjson.String || r.Type == gjson.Number {
			if s := strings.TrimSpace(r.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// timeField reads the first key holding a number of seconds or a timecode.
func timeField(v gjson.Result, keys ...string) (float64, bool) {
	for _, key := range keys {
		r := v.Get(key)
		switch r.Type {
		case gjson.Number:
			return math.Max(0, r.Float()), true
		case gjson.String:
			s := strings.TrimSpace(r.String())
			if s == "" {
				continue
			}
			if start, _, ok := timeRange(s); ok {
				return start, true
			}
			if timecode.Looks(s) {
				return timecode.Parse(s), true
			}
			if f, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return math.Max(0, f), true
			}
		}
	}
	return 0, false
}

// timeRange splits "00:05 - 00:12" into its two timecodes.
func timeRange(s string) (float64, float64, bool) {
	m := rangeRE.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	return timecode.Parse(m[1]), timecode.Parse(m[2]), true
}

func confidenceField(v gjson.Result, keys ...string) *float64 {
	for _, key := range keys {
		r := v.Get(key)
		switch r.Type {
		case gjson.Number:
			return normalizeConfidence(r.Float(), false)
		case gjson.String:
			s := strings.TrimSpace(r.String())
			percent := strings.HasSuffix(s, "%")
			if f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64); err == nil {
				return normalizeConfidence(f, percent)
			}
		}
	}
	return nil
}

// finalize backfills missing times and enforces start <= end for the segment
// and each of its entities.
func finalize(seg *models.AnnotationSegment) {
	childStart, childEnd := unset, unset
	for _, list := range [][]models.DetectedEntity{seg.DetectedObjects, seg.DetectedActions} {
		for _, e := range list {
			if isSet(e.StartTime) && (!isSet(childStart) || e.StartTime < childStart) {
				childStart = e.StartTime
			}
			if isSet(e.EndTime) && (!isSet(childEnd) || e.EndTime > childEnd) {
				childEnd = e.EndTime
			}
		}
	}

	if !isSet(seg.StartTime) {
		seg.StartTime = 0
		if isSet(childStart) {
			seg.StartTime = childStart
		}
	}
	if !isSet(seg.EndTime) {
		seg.EndTime = seg.StartTime
		if isSet(childEnd) {
			seg.EndTime = childEnd
		}
	}
	if seg.StartTime > seg.EndTime {
		seg.StartTime, seg.EndTime = seg.EndTime, seg.StartTime
	}

	if seg.DetectedObjects == nil {
		seg.DetectedObjects = []models.DetectedEntity{}
	}
	if seg.DetectedActions == nil {
		seg.DetectedActions = []models.DetectedEntity{}
	}
	finalizeEntities(seg.DetectedObjects, seg)
	finalizeEntities(seg.DetectedActions, seg)
}

// Entities without times default to the parent interval.
func finalizeEntities(entities []models.DetectedEntity, parent *models.AnnotationSegment) {
	for i := range entities {
		e := &entities[i]
		if !isSet(e.StartTime) {
			e.StartTime = parent.StartTime
		}
		if !isSet(e.EndTime) {
			e.EndTime = math.Max(parent.EndTime, e.StartTime)
		}
		if e.StartTime > e.EndTime {
			e.StartTime, e.EndTime = e.EndTime, e.StartTime
		}
	}
}

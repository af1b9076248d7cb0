package models

import "time"

// EntityKind distinguishes the two entity lists carried by a segment.
type EntityKind string

const (
	EntityObject EntityKind = "object"
	EntityAction EntityKind = "action"
)

// DetectedEntity is one object or action reference inside a segment.
// Its interval is a display convention and may extend past the parent segment.
type DetectedEntity struct {
	Label           string   `json:"label"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	StartTime       float64  `json:"start_time"`
	EndTime         float64  `json:"end_time"`
}

// AnnotationSegment is one labeled time region of a video.
type AnnotationSegment struct {
	StartTime           float64          `json:"start_time"`
	EndTime             float64          `json:"end_time"`
	Description         string           `json:"description"`
	SceneClassification string           `json:"scene_classification"`
	DetectedObjects     []DetectedEntity `json:"detected_objects"`
	DetectedActions     []DetectedEntity `json:"detected_actions"`
	ConfidenceScore     *float64         `json:"confidence_score,omitempty"`
}

// Entities returns a pointer to the list holding entities of the given kind.
func (s *AnnotationSegment) Entities(kind EntityKind) *[]DetectedEntity {
	if kind == EntityAction {
		return &s.DetectedActions
	}
	return &s.DetectedObjects
}

type Readiness string

const (
	ReadinessReady       Readiness = "ready"
	ReadinessNeedsReview Readiness = "needs_review"
)

// AnnotationSet is the full annotation result for one video.
// Segments keep the order produced by the analysis pass and are not
// guaranteed to be sorted by time.
type AnnotationSet struct {
	Segments          []AnnotationSegment `json:"annotations"`
	OverallConfidence float64             `json:"overall_confidence"`
	AnnotatedAt       time.Time           `json:"annotated_at"`
	VideoURL          string              `json:"video_url,omitempty"`
	VideoMetadata     *VideoMetadata      `json:"video_metadata,omitempty"`
}

// Float returns a pointer to v, for optional confidence fields.
func Float(v float64) *float64 {
	return &v
}

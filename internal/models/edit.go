package models

import "time"

type EditOperation string

const (
	OpEditSegment   EditOperation = "edit_segment"
	OpDeleteSegment EditOperation = "delete_segment"
	OpAddTag        EditOperation = "add_tag"
	OpRemoveTag     EditOperation = "remove_tag"
)

// EditEvent records one manual correction for auditing.
type EditEvent struct {
	ID           string        `json:"id"`
	CollectionID string        `json:"collection_id"`
	ItemKey      string        `json:"item_key"`
	Operation    EditOperation `json:"operation"`
	SegmentIndex int           `json:"segment_index"`
	Detail       string        `json:"detail,omitempty"`
	At           time.Time     `json:"at"`
}

// ReviewItem is one annotated video listed in a review digest.
type ReviewItem struct {
	CollectionID      string
	ItemKey           string
	Title             string
	URL               string
	Readiness         Readiness
	OverallConfidence float64
	Segments          int
	Error             string
}

// ReviewDigest summarizes a batch run for the reviewer email.
type ReviewDigest struct {
	GeneratedAt time.Time
	Ready       []ReviewItem
	NeedsReview []ReviewItem
}

package models

import (
	"strings"
	"time"
)

type Video struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	ChannelTitle    string         `json:"channel_title"`
	PublishedAt     time.Time      `json:"published_at"`
	Duration        string         `json:"duration"`
	DurationSeconds int            `json:"duration_seconds"`
	URL             string         `json:"url"`
	Metadata        *VideoMetadata `json:"metadata,omitempty"`
}

// Key identifies the video inside its collection for storage purposes.
func (v *Video) Key() string {
	if v.Metadata != nil && v.Metadata.Filename != "" {
		return v.Metadata.Filename
	}
	return v.ID
}

// VideoMetadata is passed through from the video source untouched.
type VideoMetadata struct {
	Filename        string  `json:"filename,omitempty"`
	DurationSeconds float64 `json:"duration,omitempty"`
	FPS             float64 `json:"fps,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	Size            int64   `json:"size,omitempty"`
}

// Collection groups videos that share a label taxonomy.
type Collection struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Labels      LabelSet `json:"labels"`
}

// LabelSet is an insertion-ordered set of trimmed, non-empty labels.
type LabelSet []string

// Add appends label unless it is blank or already present. It reports
// whether the set changed.
func (l *LabelSet) Add(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || l.Has(label) {
		return false
	}
	*l = append(*l, label)
	return true
}

func (l *LabelSet) Remove(label string) bool {
	label = strings.TrimSpace(label)
	for i, existing := range *l {
		if existing == label {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

func (l LabelSet) Has(label string) bool {
	for _, existing := range l {
		if existing == label {
			return true
		}
	}
	return false
}

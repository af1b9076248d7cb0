package annotation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"video-annotator/internal/models"

	"github.com/google/uuid"
)

var (
	ErrSegmentOutOfRange = errors.New("segment index out of range")
	ErrTagOutOfRange     = errors.New("tag index out of range")
	ErrEmptyLabel        = errors.New("tag label is empty")
)

// Store persists a whole annotation set. Writes fully overwrite.
type Store interface {
	Put(ctx context.Context, collectionID, itemKey string, set *models.AnnotationSet) error
}

// EditRecorder receives an audit event for each applied edit.
type EditRecorder interface {
	RecordEdit(ctx context.Context, event models.EditEvent) error
}

// SegmentEdit replaces the mutable fields of a segment. Nil tag lists are
// left untouched.
type SegmentEdit struct {
	Description     string
	DetectedObjects []models.DetectedEntity
	DetectedActions []models.DetectedEntity
}

// EditResult is returned by every successful edit. Warning holds a
// persistence failure; the in-memory change has still been applied.
type EditResult struct {
	Readiness models.Readiness
	Overall   float64
	Warning   error
}

// Session applies manual corrections to one video's annotation set and
// persists the set after every change.
type Session struct {
	collectionID string
	itemKey      string
	set          *models.AnnotationSet
	store        Store
	recorder     EditRecorder
	selected     int
}

func NewSession(collectionID, itemKey string, set *models.AnnotationSet, store Store) *Session {
	if set == nil {
		set = &models.AnnotationSet{}
	}
	return &Session{
		collectionID: collectionID,
		itemKey:      itemKey,
		set:          set,
		store:        store,
		selected:     -1,
	}
}

// WithRecorder attaches an audit recorder.
func (s *Session) WithRecorder(r EditRecorder) *Session {
	s.recorder = r
	return s
}

func (s *Session) Set() *models.AnnotationSet {
	return s.set
}

func (s *Session) Select(index int) error {
	if err := s.checkSegment(index); err != nil {
		return err
	}
	s.selected = index
	return nil
}

// Selected returns the active segment index, if any.
func (s *Session) Selected() (int, bool) {
	return s.selected, s.selected >= 0
}

func (s *Session) ClearSelection() {
	s.selected = -1
}

// EditSegment replaces the segment's description and tag lists. The
// segment's confidence becomes 1.0.
func (s *Session) EditSegment(ctx context.Context, index int, edit SegmentEdit) (EditResult, error) {
	if err := s.checkSegment(index); err != nil {
		return EditResult{}, err
	}

	seg := &s.set.Segments[index]
	seg.Description = edit.Description
	if edit.DetectedObjects != nil {
		seg.DetectedObjects = edit.DetectedObjects
	}
	if edit.DetectedActions != nil {
		seg.DetectedActions = edit.DetectedActions
	}
	seg.ConfidenceScore = models.Float(1.0)

	return s.commit(ctx, models.OpEditSegment, index, ""), nil
}

// DeleteSegment removes the segment, clearing the selection if it pointed
// at the removed segment.
func (s *Session) DeleteSegment(ctx context.Context, index int) (EditResult, error) {
	if err := s.checkSegment(index); err != nil {
		return EditResult{}, err
	}

	s.set.Segments = append(s.set.Segments[:index], s.set.Segments[index+1:]...)
	switch {
	case s.selected == index:
		s.selected = -1
	case s.selected > index:
		s.selected--
	}

	return s.commit(ctx, models.OpDeleteSegment, index, ""), nil
}

// AddTag appends a manual object or action tag spanning the parent segment.
func (s *Session) AddTag(ctx context.Context, index int, kind models.EntityKind, label string) (EditResult, error) {
	if err := s.checkSegment(index); err != nil {
		return EditResult{}, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return EditResult{}, ErrEmptyLabel
	}

	seg := &s.set.Segments[index]
	list := seg.Entities(kind)
	*list = append(*list, models.DetectedEntity{
		Label:           label,
		ConfidenceScore: models.Float(1.0),
		StartTime:       seg.StartTime,
		EndTime:         seg.EndTime,
	})
	seg.ConfidenceScore = models.Float(1.0)

	return s.commit(ctx, models.OpAddTag, index, fmt.Sprintf("%s:%s", kind, label)), nil
}

func (s *Session) RemoveTag(ctx context.Context, index int, kind models.EntityKind, tagIndex int) (EditResult, error) {
	if err := s.checkSegment(index); err != nil {
		return EditResult{}, err
	}

	seg := &s.set.Segments[index]
	list := seg.Entities(kind)
	if tagIndex < 0 || tagIndex >= len(*list) {
		return EditResult{}, fmt.Errorf("%w: %s %d of %d", ErrTagOutOfRange, kind, tagIndex, len(*list))
	}
	removed := (*list)[tagIndex].Label
	*list = append((*list)[:tagIndex], (*list)[tagIndex+1:]...)
	seg.ConfidenceScore = models.Float(1.0)

	return s.commit(ctx, models.OpRemoveTag, index, fmt.Sprintf("%s:%s", kind, removed)), nil
}

func (s *Session) checkSegment(index int) error {
	if index < 0 || index >= len(s.set.Segments) {
		return fmt.Errorf("%w: %d of %d", ErrSegmentOutOfRange, index, len(s.set.Segments))
	}
	return nil
}

// commit recomputes confidence and persists. Store and recorder failures
// are reported as warnings only.
func (s *Session) commit(ctx context.Context, op models.EditOperation, index int, detail string) EditResult {
	result := EditResult{Readiness: Recompute(s.set), Overall: s.set.OverallConfidence}

	if s.store != nil {
		if err := s.store.Put(ctx, s.collectionID, s.itemKey, s.set); err != nil {
			log.Printf("Warning: edit applied but not saved for %s/%s: %v", s.collectionID, s.itemKey, err)
			result.Warning = err
		}
	}

	if s.recorder != nil {
		event := models.EditEvent{
			ID:           uuid.NewString(),
			CollectionID: s.collectionID,
			ItemKey:      s.itemKey,
			Operation:    op,
			SegmentIndex: index,
			Detail:       detail,
			At:           time.Now().UTC(),
		}
		if err := s.recorder.RecordEdit(ctx, event); err != nil {
			log.Printf("Warning: failed to record %s edit for %s/%s: %v", op, s.collectionID, s.itemKey, err)
		}
	}

	return result
}

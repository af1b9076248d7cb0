package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"video-annotator/internal/models"
)

// AnnotationStore reads and writes whole annotation sets and label
// taxonomies on top of a KV.
type AnnotationStore struct {
	kv KV
}

func NewAnnotationStore(kv KV) *AnnotationStore {
	return &AnnotationStore{kv: kv}
}

// KV returns the underlying store.
func (s *AnnotationStore) KV() KV {
	return s.kv
}

// Get returns the stored set for an item, or false when none exists.
func (s *AnnotationStore) Get(ctx context.Context, collectionID, itemKey string) (*models.AnnotationSet, bool, error) {
	raw, ok, err := s.kv.Get(ctx, AnnotationKey(collectionID, itemKey))
	if err != nil || !ok {
		return nil, false, err
	}

	var set models.AnnotationSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, false, fmt.Errorf("failed to decode annotations for %s/%s: %w", collectionID, itemKey, err)
	}
	return &set, true, nil
}

// Load is Get with ErrNotFound for a missing item.
func (s *AnnotationStore) Load(ctx context.Context, collectionID, itemKey string) (*models.AnnotationSet, error) {
	set, ok, err := s.Get(ctx, collectionID, itemKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("annotations for %s/%s: %w", collectionID, itemKey, ErrNotFound)
	}
	return set, nil
}

// Put overwrites the stored set for an item.
func (s *AnnotationStore) Put(ctx context.Context, collectionID, itemKey string, set *models.AnnotationSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode annotations: %w", err)
	}
	if err := s.kv.Set(ctx, AnnotationKey(collectionID, itemKey), string(data)); err != nil {
		return fmt.Errorf("failed to save annotations for %s/%s: %w", collectionID, itemKey, err)
	}
	return nil
}

// Items lists the item keys that have stored annotations in a collection.
func (s *AnnotationStore) Items(ctx context.Context, collectionID string) ([]string, error) {
	prefix := annotationPrefix(collectionID)
	keys, err := s.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	items := make([]string, 0, len(keys))
	for _, k := range keys {
		items = append(items, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(items)
	return items, nil
}

func (s *AnnotationStore) Labels(ctx context.Context, collectionID string) (models.LabelSet, error) {
	raw, ok, err := s.kv.Get(ctx, LabelsKey(collectionID))
	if err != nil || !ok {
		return nil, err
	}

	var labels models.LabelSet
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels for %s: %w", collectionID, err)
	}
	return labels, nil
}

func (s *AnnotationStore) PutLabels(ctx context.Context, collectionID string, labels models.LabelSet) error {
	if labels == nil {
		labels = models.LabelSet{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}
	if err := s.kv.Set(ctx, LabelsKey(collectionID), string(data)); err != nil {
		return fmt.Errorf("failed to save labels for %s: %w", collectionID, err)
	}
	return nil
}

// IsQuota reports whether err came from a full store.
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

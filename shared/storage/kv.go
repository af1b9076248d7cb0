// Package storage persists annotation sets in a string key-value store.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is returned when a write would exceed the store's
	// capacity. Nothing is written in that case.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrNotFound      = errors.New("not found")
)

// KV is a persisted string key-value store with no transactions.
// Set fully overwrites any previous value.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Keys lists stored keys with the given prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

func AnnotationKey(collectionID, itemKey string) string {
	return fmt.Sprintf("annotations_%s_%s", collectionID, itemKey)
}

func LabelsKey(collectionID string) string {
	return fmt.Sprintf("labels_%s", collectionID)
}

func annotationPrefix(collectionID string) string {
	return fmt.Sprintf("annotations_%s_", collectionID)
}

func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

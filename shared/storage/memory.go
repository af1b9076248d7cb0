package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryKV keeps values in process memory. A positive quota bounds the
// total bytes of keys and values.
type MemoryKV struct {
	values map[string]string
	quota  int64
	mu     sync.RWMutex
}

func NewMemoryKV(quotaBytes int64) *MemoryKV {
	return &MemoryKV{values: make(map[string]string), quota: quotaBytes}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		var used int64
		for k, v := range m.values {
			if k != key {
				used += entrySize(k, v)
			}
		}
		if used+entrySize(key, value) > m.quota {
			return fmt.Errorf("failed to set %s: %w", key, ErrQuotaExceeded)
		}
	}

	m.values[key] = value
	return nil
}

func (m *MemoryKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryKV) Close() error {
	return nil
}

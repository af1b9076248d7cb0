package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileKV manages a JSON file of key-value entries, loaded when opened and
// rewritten on every change.
type FileKV struct {
	filePath string
	entries  map[string]storedEntry
	quota    int64
	mu       sync.RWMutex
}

type storedEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFileKV opens (or creates) the store in dataDir. A positive quota
// bounds the total bytes of keys and values.
func NewFileKV(dataDir string, quotaBytes int64) (*FileKV, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &FileKV{
		filePath: filepath.Join(dataDir, "annotations.json"),
		entries:  make(map[string]storedEntry),
		quota:    quotaBytes,
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load store data: %w", err)
	}

	return store, nil
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	e, ok := f.entries[key]
	return e.Value, ok, nil
}

// Set stores value under key. The previous value is restored if the file
// cannot be written.
func (f *FileKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.quota > 0 {
		var used int64
		for k, e := range f.entries {
			if k != key {
				used += entrySize(k, e.Value)
			}
		}
		if used+entrySize(key, value) > f.quota {
			return fmt.Errorf("failed to set %s: %w", key, ErrQuotaExceeded)
		}
	}

	prev, hadPrev := f.entries[key]
	f.entries[key] = storedEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}

	if err := f.save(); err != nil {
		if hadPrev {
			f.entries[key] = prev
		} else {
			delete(f.entries, key)
		}
		return err
	}
	return nil
}

func (f *FileKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var keys []string
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileKV) Close() error {
	return nil
}

// load reads the entries from the JSON file
func (f *FileKV) load() error {
	file, err := os.Open(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	var entries []storedEntry
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode store data: %w", err)
	}

	for _, e := range entries {
		f.entries[e.Key] = e
	}

	return nil
}

// save writes all entries to a temporary file and renames it into place.
func (f *FileKV) save() error {
	entries := make([]storedEntry, 0, len(f.entries))
	for _, e := range f.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	tmp := f.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode store data: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}

	if err := os.Rename(tmp, f.filePath); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

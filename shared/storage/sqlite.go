package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"video-annotator/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteKV stores values in a single SQLite table and keeps an audit log
// of manual edits alongside them.
type SQLiteKV struct {
	db    *sql.DB
	quota int64
}

func NewSQLiteKV(path string, quotaBytes int64) (*SQLiteKV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS annotation_edits (
		id            TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		item_key      TEXT NOT NULL,
		operation     TEXT NOT NULL,
		segment_index INTEGER NOT NULL,
		detail        TEXT DEFAULT '',
		edited_at     DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_edits_item ON annotation_edits(collection_id, item_key);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	return &SQLiteKV{db: db, quota: quotaBytes}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	if s.quota > 0 {
		var used int64
		err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM kv WHERE key != ?`,
			key,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("failed to measure store size: %w", err)
		}
		if used+entrySize(key, value) > s.quota {
			return fmt.Errorf("failed to set %s: %w", key, ErrQuotaExceeded)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RecordEdit appends a manual edit to the audit log.
func (s *SQLiteKV) RecordEdit(ctx context.Context, event models.EditEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO annotation_edits (id, collection_id, item_key, operation, segment_index, detail, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.CollectionID, event.ItemKey, string(event.Operation), event.SegmentIndex, event.Detail, event.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record edit: %w", err)
	}
	return nil
}

// ListEdits returns the audit log for one item, oldest first.
func (s *SQLiteKV) ListEdits(ctx context.Context, collectionID, itemKey string) ([]models.EditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection_id, item_key, operation, segment_index, detail, edited_at
		FROM annotation_edits WHERE collection_id = ? AND item_key = ?
		ORDER BY edited_at, rowid`,
		collectionID, itemKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer rows.Close()

	var events []models.EditEvent
	for rows.Next() {
		var e models.EditEvent
		var op string
		if err := rows.Scan(&e.ID, &e.CollectionID, &e.ItemKey, &op, &e.SegmentIndex, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		e.Operation = models.EditOperation(op)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

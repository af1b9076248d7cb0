package storage

import (
	"context"
	"errors"
	"fmt"

	"video-annotator/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKV is the shared-deployment backend.
type PostgresKV struct {
	pool  *pgxpool.Pool
	quota int64
}

func NewPostgresKV(ctx context.Context, dsn string, quotaBytes int64) (*PostgresKV, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresKV{pool: pool, quota: quotaBytes}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (p *PostgresKV) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS annotation_edits (
			id            TEXT PRIMARY KEY,
			collection_id TEXT NOT NULL,
			item_key      TEXT NOT NULL,
			operation     TEXT NOT NULL,
			segment_index INTEGER NOT NULL,
			detail        TEXT NOT NULL DEFAULT '',
			edited_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edits_item ON annotation_edits (collection_id, item_key)`,
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create postgres schema: %w", err)
		}
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, "SELECT value FROM kv WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string) error {
	if p.quota > 0 {
		var used int64
		err := p.pool.QueryRow(ctx,
			"SELECT COALESCE(SUM(octet_length(key) + octet_length(value)), 0) FROM kv WHERE key <> $1",
			key,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("failed to measure store size: %w", err)
		}
		if used+entrySize(key, value) > p.quota {
			return fmt.Errorf("failed to set %s: %w", key, ErrQuotaExceeded)
		}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT key FROM kv WHERE left(key, char_length($1)) = $1 ORDER BY key",
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

func (p *PostgresKV) RecordEdit(ctx context.Context, event models.EditEvent) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO annotation_edits (id, collection_id, item_key, operation, segment_index, detail, edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.CollectionID, event.ItemKey, string(event.Operation), event.SegmentIndex, event.Detail, event.At)
	if err != nil {
		return fmt.Errorf("failed to record edit: %w", err)
	}
	return nil
}

func (p *PostgresKV) ListEdits(ctx context.Context, collectionID, itemKey string) ([]models.EditEvent, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, collection_id, item_key, operation, segment_index, detail, edited_at
		FROM annotation_edits WHERE collection_id = $1 AND item_key = $2
		ORDER BY edited_at, id
	`, collectionID, itemKey)
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

func (p *PostgresKV) Close() error {
	p.pool.Close()
	return nil
}

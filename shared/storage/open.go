package storage

import (
	"context"
	"fmt"
	"log"

	"video-annotator/shared/config"
)

// Open creates the KV backend selected in the storage config.
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	switch cfg.Backend {
	case "", "file":
		log.Printf("Using file store in %s", cfg.DataDir)
		kv, err := NewFileKV(cfg.DataDir, cfg.QuotaBytes)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "sqlite":
		log.Printf("Using sqlite store at %s", cfg.Path)
		kv, err := NewSQLiteKV(cfg.Path, cfg.QuotaBytes)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "postgres":
		log.Printf("Using postgres store")
		kv, err := NewPostgresKV(ctx, cfg.DSN, cfg.QuotaBytes)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "memory":
		log.Printf("Using in-memory store; annotations will not survive a restart")
		return NewMemoryKV(cfg.QuotaBytes), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

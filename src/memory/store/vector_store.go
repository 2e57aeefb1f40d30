package store

import (
	"context"

	"github.com/hivegate/hive-agent/src/memory/model"
)

// VectorStore is the contract for knowledge-base backends.
//
// Upsert is idempotent per key: re-ingesting a key replaces the prior
// record instead of growing the store. Search returns the most similar
// records first; ties break toward the most recently ingested record.
type VectorStore interface {
	Upsert(ctx context.Context, key, content string, metadata map[string]string, embedding []float32) error
	Search(ctx context.Context, embedding []float32, limit int) ([]model.MemoryRecord, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// SchemaInitializer is implemented by stores that bootstrap their own schema.
type SchemaInitializer interface {
	CreateSchema(ctx context.Context) error
}

package store

import (
	"context"
	"fmt"
)

// Options select and parameterize a VectorStore backend.
type Options struct {
	Backend    string // memory, sqlite, postgres, mongodb
	Path       string // sqlite file path
	DSN        string // postgres connection string, mongodb URI
	Database   string // mongodb database
	Collection string // mongodb collection
	Dim        int    // embedding dimension (postgres schema)
}

// Open builds the configured backend.
func Open(ctx context.Context, opt Options) (VectorStore, error) {
	switch opt.Backend {
	case "", "memory":
		return NewInMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, opt.Path)
	case "postgres":
		return NewPostgresStore(ctx, opt.DSN, opt.Dim)
	case "mongodb":
		return NewMongoStore(ctx, opt.DSN, opt.Database, opt.Collection)
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", opt.Backend)
	}
}

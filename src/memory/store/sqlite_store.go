package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hivegate/hive-agent/src/memory/model"
)

// SQLiteStore is a single-file VectorStore. SQLite has no vector type, so
// embeddings are stored as JSON and similarity is computed in process. Fine
// for knowledge bases in the hundreds of documents, which is the usual size
// of an API corpus.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Concurrent writers trip SQLITE_BUSY otherwise.
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS agent_knowledge (
			key TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '',
			embedding TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, key, content string, metadata map[string]string, embedding []float32) error {
	meta, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}
	vec, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_knowledge (key, content, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			created_at = excluded.created_at`,
		key, content, meta, string(vec), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite upsert %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, embedding []float32, limit int) ([]model.MemoryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, content, metadata, embedding, created_at FROM agent_knowledge`)
	if err != nil {
		return nil, fmt.Errorf("sqlite search: %w", err)
	}
	defer rows.Close()

	var scored []model.MemoryRecord
	for rows.Next() {
		var rec model.MemoryRecord
		var meta, vec string
		if err := rows.Scan(&rec.Key, &rec.Content, &meta, &vec, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		if rec.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vec), &rec.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding for %q: %w", rec.Key, err)
		}
		rec.Score = model.CosineSimilarity(embedding, rec.Embedding)
		scored = append(scored, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM agent_knowledge`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

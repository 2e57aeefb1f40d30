package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hivegate/hive-agent/src/memory/model"
)

// PostgresStore keeps knowledge records in a pgvector-enabled table.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

// NewPostgresStore connects to connStr and bootstraps the schema. dim is the
// embedding dimension the table is declared with; it must match the embedder.
func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := &PostgresStore{pool: pool, dim: dim}
	if err := s.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS agent_knowledge (
			key TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dim),
		`CREATE INDEX IF NOT EXISTS agent_knowledge_embedding_idx
			ON agent_knowledge USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, key, content string, metadata map[string]string, embedding []float32) error {
	meta, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO agent_knowledge (key, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3, $4::vector, $5)
		ON CONFLICT (key) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at`,
		key, content, meta, vectorLiteral(embedding), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres upsert %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, embedding []float32, limit int) ([]model.MemoryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT key, content, metadata, 1 - (embedding <=> $1::vector) AS score, created_at
		FROM agent_knowledge
		ORDER BY embedding <=> $1::vector, created_at DESC
		LIMIT $2`,
		vectorLiteral(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres search: %w", err)
	}
	defer rows.Close()

	var out []model.MemoryRecord
	for rows.Next() {
		var rec model.MemoryRecord
		var meta string
		if err := rows.Scan(&rec.Key, &rec.Content, &meta, &rec.Score, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		if rec.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM agent_knowledge`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres count: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// vectorLiteral renders the pgvector input form "[0.1,0.2,...]".
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func encodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(raw), nil
}

func decodeMetadata(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	m := map[string]string{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hivegate/hive-agent/src/memory/embed"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.db")
	s, err := NewSQLiteStore(context.Background(), path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, "doc-1", "list_databases returns all Hive databases",
		map[string]string{"source": "hive-api.json"}, embed.DummyEmbedding("list databases"))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Search(ctx, embed.DummyEmbedding("list databases"), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Search returned %d records, want 1", len(got))
	}
	if got[0].Key != "doc-1" {
		t.Fatalf("Key = %q, want doc-1", got[0].Key)
	}
	if got[0].Metadata["source"] != "hive-api.json" {
		t.Fatalf("Metadata = %v, want source=hive-api.json", got[0].Metadata)
	}
	if got[0].Score <= 0.99 {
		t.Fatalf("self-similarity score = %v, want ~1", got[0].Score)
	}
}

func TestSQLiteStoreUpsertReplaces(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, content := range []string{"first version", "second version"} {
		if err := s.Upsert(ctx, "doc-1", content, nil, embed.DummyEmbedding(content)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
	got, err := s.Search(ctx, embed.DummyEmbedding("second version"), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got[0].Content != "second version" {
		t.Fatalf("Content = %q, want replaced content", got[0].Content)
	}
}

package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hivegate/hive-agent/src/memory/embed"
	"github.com/hivegate/hive-agent/src/memory/store"
)

func writeKnowledge(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadKnowledgeBase(t *testing.T) {
	dir := writeKnowledge(t, map[string]string{
		"api.json":  `[{"id":"delete","text":"delete_table drops a table"},{"text":"anonymous doc"}]`,
		"solo.json": `{"id":"login","text":"POST /api/auth/login returns a token"}`,
		"notes.txt": "ignored",
	})

	docs, err := LoadKnowledgeBase(dir)
	if err != nil {
		t.Fatalf("LoadKnowledgeBase: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("loaded %d documents, want 3", len(docs))
	}
	if docs[0].ID != "delete" {
		t.Fatalf("docs[0].ID = %q", docs[0].ID)
	}
	if docs[1].ID != "api.json#1" {
		t.Fatalf("anonymous doc id = %q", docs[1].ID)
	}
	if docs[2].Metadata["source"] != "solo.json" {
		t.Fatalf("metadata = %v", docs[2].Metadata)
	}
}

func TestEnsureIndexIngestsOnceAndIsIdempotent(t *testing.T) {
	dir := writeKnowledge(t, map[string]string{
		"api.json": `[{"id":"a","text":"list_tables lists tables"},{"id":"b","text":"list_databases lists databases"}]`,
	})
	st := store.NewInMemoryStore()
	r := NewRetriever(embed.DummyEmbedder{}, st, dir, 4, time.Second, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := r.EnsureIndex(ctx); err != nil {
			t.Fatalf("EnsureIndex #%d: %v", i, err)
		}
	}
	n, _ := st.Count(ctx)
	if n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
}

func TestRetrieveReturnsRelevantContext(t *testing.T) {
	dir := writeKnowledge(t, map[string]string{
		"api.json": `[{"id":"del","text":"delete_table removes a Hive table"},{"id":"db","text":"list_databases enumerates databases"}]`,
	})
	st := store.NewInMemoryStore()
	r := NewRetriever(embed.DummyEmbedder{}, st, dir, 1, time.Second, nil)
	ctx := context.Background()
	if err := r.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}

	contextBlock, records := r.Retrieve(ctx, "delete_table removes a Hive table")
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Key != "del" {
		t.Fatalf("top record = %q, want del", records[0].Key)
	}
	if !strings.Contains(contextBlock, "delete_table") {
		t.Fatalf("context block = %q", contextBlock)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func TestRetrieveFailureIsNonFatal(t *testing.T) {
	st := store.NewInMemoryStore()
	r := NewRetriever(failingEmbedder{}, st, t.TempDir(), 4, time.Second, nil)

	contextBlock, records := r.Retrieve(context.Background(), "anything")
	if contextBlock != "" || records != nil {
		t.Fatalf("expected empty result on embedder failure, got %q / %v", contextBlock, records)
	}
}

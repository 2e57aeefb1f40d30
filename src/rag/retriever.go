package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hivegate/hive-agent/src/memory/embed"
	"github.com/hivegate/hive-agent/src/memory/model"
	"github.com/hivegate/hive-agent/src/memory/store"
)

// Retriever embeds queries and pulls the closest knowledge records. It is
// the only component allowed to swallow its own failures: retrieval is an
// enrichment, and a turn proceeds without context when it breaks.
type Retriever struct {
	embedder embed.Embedder
	store    store.VectorStore
	dir      string
	topK     int
	timeout  time.Duration
	logger   *slog.Logger
}

func NewRetriever(embedder embed.Embedder, st store.VectorStore, dir string, topK int, timeout time.Duration, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		store:    st,
		dir:      dir,
		topK:     topK,
		timeout:  timeout,
		logger:   logger,
	}
}

// EnsureIndex ingests the knowledge directory if the store is empty.
// Re-running against a populated store is a no-op, so startup stays cheap.
func (r *Retriever) EnsureIndex(ctx context.Context) error {
	n, err := r.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count knowledge records: %w", err)
	}
	if n > 0 {
		r.logger.Debug("knowledge base already indexed", "records", n)
		return nil
	}
	return r.Rebuild(ctx)
}

// Rebuild re-ingests every document. Upserts are keyed by document id, so
// rebuilding refreshes content without duplicating records.
func (r *Retriever) Rebuild(ctx context.Context) error {
	docs, err := LoadKnowledgeBase(r.dir)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	for _, doc := range docs {
		vec, err := r.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("embed %s: %w", doc.ID, err)
		}
		if err := r.store.Upsert(ctx, doc.ID, doc.Text, doc.Metadata, vec); err != nil {
			return fmt.Errorf("upsert %s: %w", doc.ID, err)
		}
	}
	r.logger.Info("knowledge base indexed", "documents", len(docs), "dir", r.dir)
	return nil
}

// Retrieve returns the concatenated context block for query, and the raw
// records for callers that want them. A failure logs and returns empty
// context; it never fails the turn.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, []model.MemoryRecord) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed, continuing without context", "error", err)
		return "", nil
	}
	records, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		r.logger.Warn("knowledge search failed, continuing without context", "error", err)
		return "", nil
	}
	if len(records) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(rec.Content)
	}
	return b.String(), records
}

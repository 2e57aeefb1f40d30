package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hivegate/hive-agent/src/memory/model"
)

// InMemoryStore implements VectorStore for tests and lightweight deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.MemoryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]model.MemoryRecord)}
}

func (s *InMemoryStore) Upsert(_ context.Context, key, content string, metadata map[string]string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	s.records[key] = model.MemoryRecord{
		Key:       key,
		Content:   content,
		Metadata:  meta,
		Embedding: append([]float32(nil), embedding...),
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *InMemoryStore) Search(_ context.Context, embedding []float32, limit int) ([]model.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		return nil, nil
	}
	scored := make([]model.MemoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		rec.Score = model.CosineSimilarity(embedding, rec.Embedding)
		scored = append(scored, rec)
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

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *InMemoryStore) Close() error { return nil }

package model

import (
	"math"
	"time"
)

// MemoryRecord is a single knowledge entry addressed by a logical key.
// Re-ingesting the same key overwrites the prior record.
type MemoryRecord struct {
	Key       string
	Content   string
	Metadata  map[string]string
	Embedding []float32
	CreatedAt time.Time

	// Score is populated on retrieval: cosine similarity against the query.
	Score float64
}

// CosineSimilarity returns the cosine similarity between two vectors.
// Mismatched or empty vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

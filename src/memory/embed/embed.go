package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Embedder is a pluggable text-embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrNotSupported is returned by providers that do not offer embeddings.
var ErrNotSupported = errors.New("embeddings not supported by this provider")

// DummyDim is the dimension of the deterministic fallback embedding.
const DummyDim = 768

// ---------- Dummy (fallback) ----------

type DummyEmbedder struct{}

func (DummyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return DummyEmbedding(text), nil
}

// DummyEmbedding produces a deterministic vector from the input bytes.
// Used by tests and as a last-resort fallback.
func DummyEmbedding(text string) []float32 {
	vec := make([]float32, DummyDim)
	for i, ch := range []byte(text) {
		vec[i%DummyDim] += float32(ch) / 255.0
	}
	return vec
}

// New selects an embedding provider by name.
// Supported providers: openai (also serves any OpenAI-compatible endpoint,
// e.g. Ollama's /v1), ollama, fastembed, dummy.
func New(provider, model, baseURL, apiKey string) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai", "openai-compatible":
		return NewOpenAIEmbedder(model, baseURL, apiKey)
	case "ollama":
		return NewOllamaEmbedder(model, baseURL)
	case "fastembed":
		return NewFastEmbedder(context.Background(), nil)
	case "dummy", "":
		return DummyEmbedder{}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

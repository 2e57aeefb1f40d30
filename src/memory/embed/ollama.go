package embed

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"time"

	ollama "github.com/ollama/ollama/api"
)

type OllamaEmbedder struct {
	client *ollama.Client
	model  string
}

func NewOllamaEmbedder(model, host string) (Embedder, error) {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{client: ollama.NewClient(u, httpClient), model: model}, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Embed(ctx, &ollama.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Embeddings) == 0 || len(res.Embeddings[0]) == 0 {
		return nil, ErrNotSupported
	}
	return res.Embeddings[0], nil
}

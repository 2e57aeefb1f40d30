package embed

import (
	"context"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder talks to any OpenAI-compatible embeddings endpoint.
// With baseURL pointed at Ollama's /v1 this serves local models such as
// nomic-embed-text; api_key is then ignored by the server but required
// by the SDK.
func NewOpenAIEmbedder(model, baseURL, apiKey string) (Embedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		apiKey = "ollama"
	}
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrNotSupported
	}
	return resp.Data[0].Embedding, nil
}

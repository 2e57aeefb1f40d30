//go:build fastembed

package embed

import (
	"context"
	"fmt"
	"runtime"

	fastembed "github.com/anush008/fastembed-go"
)

// FastEmbedOptions configure the local ONNX embedding runtime.
type FastEmbedOptions struct {
	Model     fastembed.EmbeddingModel // zero value picks bge-small-en-v1.5
	CacheDir  string
	MaxLength int
	BatchSize int
}

type FastEmbedder struct {
	m  *fastembed.FlagEmbedding
	bs int
}

// NewFastEmbedder runs embeddings fully offline. No network dependency,
// which makes retrieval immune to embedding-service outages.
func NewFastEmbedder(ctx context.Context, opt *FastEmbedOptions) (Embedder, error) {
	var init *fastembed.InitOptions
	if opt != nil {
		init = &fastembed.InitOptions{
			Model:     opt.Model,
			CacheDir:  opt.CacheDir,
			MaxLength: opt.MaxLength,
		}
	}
	m, err := fastembed.NewFlagEmbedding(init)
	if err != nil {
		return nil, err
	}
	bs := 64
	if opt != nil && opt.BatchSize > 0 {
		bs = opt.BatchSize
	}
	if bs > 4*runtime.GOMAXPROCS(0) {
		bs = 4 * runtime.GOMAXPROCS(0)
	}
	return &FastEmbedder{m: m, bs: bs}, nil
}

func (e *FastEmbedder) Close() error {
	if e.m != nil {
		e.m.Destroy()
	}
	return nil
}

func (e *FastEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.m.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("fastembed query: %w", err)
	}
	return vec, nil
}

//go:build !fastembed

package embed

import (
	"context"
	"fmt"
)

// NewFastEmbedder is unavailable unless the binary is built with -tags fastembed.
func NewFastEmbedder(_ context.Context, _ any) (Embedder, error) {
	return nil, fmt.Errorf("fastembed support not included; rebuild with -tags fastembed")
}

package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel uses Google's generative AI API through the rendered-prompt
// directive protocol.
type GeminiModel struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiModel(ctx context.Context, model, apiKey string, timeout time.Duration) (*GeminiModel, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiModel{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiModel) Name() string { return "gemini/" + g.model }

func (g *GeminiModel) Chat(ctx context.Context, req Request) (Completion, error) {
	// The genai client has no per-client timeout knob, so bound each call.
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(renderPrompt(req)))
	if err != nil {
		return Completion{}, fmt.Errorf("gemini chat: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Completion{}, errors.New("gemini chat: empty response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return completionFromText(text)
}

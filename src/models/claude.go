package models

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeModel uses Anthropic's Messages API. Tool use goes through the
// rendered-prompt directive protocol rather than the native tool blocks,
// which keeps the history mapping identical across text backends.
type ClaudeModel struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewClaudeModel(model, apiKey string, timeout time.Duration) *ClaudeModel {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	clOpts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(apiKey),
	}
	if timeout > 0 {
		clOpts = append(clOpts, anthropicopt.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	cl := anthropic.NewClient(clOpts...)
	return &ClaudeModel{
		client:    &cl,
		model:     model,
		maxTokens: 1024,
	}
}

func (c *ClaudeModel) Name() string { return "anthropic/" + c.model }

func (c *ClaudeModel) Chat(ctx context.Context, req Request) (Completion, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(renderPrompt(req))),
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic chat: %w", err)
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return completionFromText(b.String())
}

// completionFromText lifts a directive in the raw text into a structured
// tool call. A malformed directive surfaces as an error for the caller to
// feed back to the model.
func completionFromText(text string) (Completion, error) {
	call, found, err := ParseToolDirective(text)
	if err != nil {
		return Completion{}, err
	}
	if !found {
		return Completion{Text: strings.TrimSpace(text)}, nil
	}
	return Completion{ToolCalls: []ToolCall{call}}, nil
}

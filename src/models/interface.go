package models

import (
	"context"
	"fmt"
	"time"
)

// Message roles on the conversation wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one turn of conversation history. Tool result messages
// carry the call they answer so providers can reconstruct the exchange.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCallID string
	ToolName   string
	ToolArgs   map[string]any
}

// ToolSpec describes a callable tool to the model. Parameters is a JSON
// Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Completion is the model's answer to one request: either final text, or
// one or more tool calls, or both. Callers treat tool calls as taking
// precedence over text.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Request is everything one completion needs.
type Request struct {
	System   string
	Context  string // retrieved knowledge, prepended to the exchange
	Messages []ChatMessage
	Tools    []ToolSpec
}

// Model is a chat completion backend.
type Model interface {
	Chat(ctx context.Context, req Request) (Completion, error)
	Name() string
}

// New returns the configured backend.
func New(provider, model, baseURL, apiKey string, timeout time.Duration) (Model, error) {
	switch provider {
	case "openai":
		return NewOpenAIModel(model, baseURL, apiKey, timeout), nil
	case "ollama":
		return NewOllamaModel(model, baseURL, timeout)
	case "anthropic", "claude":
		return NewClaudeModel(model, apiKey, timeout), nil
	case "gemini", "google":
		return NewGeminiModel(context.Background(), model, apiKey, timeout)
	default:
		return nil, fmt.Errorf("unknown model provider: %s", provider)
	}
}

package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaModel talks to a local Ollama daemon over its native chat API,
// which carries tool definitions and tool calls for models that support
// them (qwen, llama3.1 and later).
type OllamaModel struct {
	client *ollama.Client
	model  string
}

func NewOllamaModel(model, baseURL string, timeout time.Duration) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaModel{
		client: ollama.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

func (m *OllamaModel) Name() string { return "ollama/" + m.model }

func (m *OllamaModel) Chat(ctx context.Context, req Request) (Completion, error) {
	msgs, err := toOllamaMessages(req)
	if err != nil {
		return Completion{}, err
	}
	tools, err := toOllamaTools(req.Tools)
	if err != nil {
		return Completion{}, err
	}

	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    m.model,
		Messages: msgs,
		Stream:   &stream,
		Tools:    tools,
	}

	var out Completion
	err = m.client.Chat(ctx, chatReq, func(resp ollama.ChatResponse) error {
		out.Text += resp.Message.Content
		for _, tc := range resp.Message.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				Name:      tc.Function.Name,
				Arguments: map[string]any(tc.Function.Arguments),
			})
		}
		return nil
	})
	if err != nil {
		return Completion{}, fmt.Errorf("ollama chat: %w", err)
	}
	return out, nil
}

func toOllamaMessages(req Request) ([]ollama.Message, error) {
	var msgs []ollama.Message
	if req.System != "" {
		msgs = append(msgs, ollama.Message{Role: RoleSystem, Content: req.System})
	}
	if req.Context != "" {
		msgs = append(msgs, ollama.Message{Role: RoleSystem, Content: "Relevant documentation:\n" + req.Context})
	}
	for _, m := range req.Messages {
		if m.Role != RoleTool {
			msgs = append(msgs, ollama.Message{Role: m.Role, Content: m.Content})
			continue
		}
		calls, err := toOllamaToolCalls(m)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs,
			ollama.Message{Role: RoleAssistant, ToolCalls: calls},
			ollama.Message{Role: RoleTool, Content: m.Content},
		)
	}
	return msgs, nil
}

// The ollama API types for tool schemas are deeply nested structs whose
// field types have shifted across releases. Marshaling the generic form
// and decoding into the typed request keeps this code version-tolerant.
func toOllamaTools(specs []ToolSpec) (ollama.Tools, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	generic := make([]map[string]any, 0, len(specs))
	for _, t := range specs {
		generic = append(generic, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	var tools ollama.Tools
	if err := json.Unmarshal(raw, &tools); err != nil {
		return nil, fmt.Errorf("encode tool schemas: %w", err)
	}
	return tools, nil
}

func toOllamaToolCalls(m ChatMessage) ([]ollama.ToolCall, error) {
	raw, err := json.Marshal([]map[string]any{{
		"function": map[string]any{
			"name":      m.ToolName,
			"arguments": m.ToolArgs,
		},
	}})
	if err != nil {
		return nil, err
	}
	var calls []ollama.ToolCall
	if err := json.Unmarshal(raw, &calls); err != nil {
		return nil, fmt.Errorf("encode tool call for %s: %w", m.ToolName, err)
	}
	return calls, nil
}

package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIModel speaks the OpenAI chat completion API with native function
// calling. Pointing BaseURL at an Ollama /v1 endpoint works unchanged.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(model, baseURL, apiKey string, timeout time.Duration) *OpenAIModel {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		// Ollama's OpenAI endpoint requires a non-empty key it never checks.
		apiKey = "ollama"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIModel{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (m *OpenAIModel) Name() string { return "openai/" + m.model }

func (m *OpenAIModel) Chat(ctx context.Context, req Request) (Completion, error) {
	msgs, err := toOpenAIMessages(req)
	if err != nil {
		return Completion{}, err
	}

	var tools []openai.Tool
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: msgs,
		Tools:    tools,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("openai chat: empty response")
	}

	choice := resp.Choices[0].Message
	out := Completion{Text: choice.Content}
	for _, tc := range choice.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return Completion{}, fmt.Errorf("openai tool call %s: bad arguments: %w", tc.Function.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

// toOpenAIMessages maps history to the wire format. A stored tool result
// implies an assistant tool_calls message the API insists on seeing first,
// so one is synthesized from the fields the result message carries.
func toOpenAIMessages(req Request) ([]openai.ChatCompletionMessage, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	if req.Context != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Relevant documentation:\n" + req.Context,
		})
	}
	for _, m := range req.Messages {
		if m.Role != RoleTool {
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Content,
			})
			continue
		}
		args, err := json.Marshal(m.ToolArgs)
		if err != nil {
			return nil, fmt.Errorf("marshal tool args for %s: %w", m.ToolName, err)
		}
		msgs = append(msgs,
			openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   m.ToolCallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      m.ToolName,
						Arguments: string(args),
					},
				}},
			},
			openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			},
		)
	}
	return msgs, nil
}

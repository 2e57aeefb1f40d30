package models

import (
	"context"
	"testing"
	"time"
)

func TestCachedModelHitsCacheForPlainText(t *testing.T) {
	inner := NewScriptedModel(
		Completion{Text: "there are three databases"},
		Completion{Text: "should never be reached"},
	)
	m := NewCachedModel(inner, 8, time.Minute)
	req := Request{Messages: []ChatMessage{{Role: RoleUser, Content: "how many databases?"}}}

	first, err := m.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	second, err := m.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if first.Text != second.Text {
		t.Fatalf("cache returned different text: %q vs %q", first.Text, second.Text)
	}
	if inner.Calls() != 1 {
		t.Fatalf("inner model called %d times, want 1", inner.Calls())
	}
}

func TestCachedModelNeverCachesToolCalls(t *testing.T) {
	inner := NewScriptedModel(
		Completion{ToolCalls: []ToolCall{{Name: "list_databases", Arguments: map[string]any{}}}},
		Completion{ToolCalls: []ToolCall{{Name: "list_databases", Arguments: map[string]any{}}}},
	)
	m := NewCachedModel(inner, 8, time.Minute)
	req := Request{Messages: []ChatMessage{{Role: RoleUser, Content: "list databases"}}}

	for i := 0; i < 2; i++ {
		if _, err := m.Chat(context.Background(), req); err != nil {
			t.Fatalf("Chat %d: %v", i, err)
		}
	}
	if inner.Calls() != 2 {
		t.Fatalf("tool call completion was cached; inner calls = %d, want 2", inner.Calls())
	}
}

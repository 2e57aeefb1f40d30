package agent

import (
	"context"
	"net/http"
	"testing"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/base"

	"github.com/hivegate/hive-agent/src/models"
)

func TestAsUTCPToolDescribesAgent(t *testing.T) {
	h := newHiveStub(t, http.StatusOK, `{}`)
	a := newTestAgent(t, models.NewScriptedModel(), h)

	tool := a.AsUTCPTool("hive.agent", "Hive metastore assistant")
	if tool.Name != "hive.agent" {
		t.Fatalf("tool name = %q", tool.Name)
	}
	bp, ok := tool.Provider.(*base.BaseProvider)
	if !ok {
		t.Fatalf("provider has type %T", tool.Provider)
	}
	if bp.Name != "hive" || bp.ProviderType != base.ProviderCLI {
		t.Fatalf("provider = %q/%q", bp.Name, bp.ProviderType)
	}
	if len(tool.Inputs.Required) != 1 || tool.Inputs.Required[0] != "message" {
		t.Fatalf("required inputs = %v", tool.Inputs.Required)
	}
	if tool.Handler == nil {
		t.Fatal("tool has no handler")
	}
}

func TestUTCPHandlerRunsTurn(t *testing.T) {
	h := newHiveStub(t, http.StatusOK, `{"databases":["default","public"]}`)
	model := models.NewScriptedModel(
		models.Completion{ToolCalls: []models.ToolCall{{
			Name: "list_databases", Arguments: map[string]any{},
		}}},
		models.Completion{Text: "There are two databases."},
		models.Completion{Text: "Still two databases."},
	)
	a := newTestAgent(t, model, h)
	tool := a.AsUTCPTool("hive.agent", "Hive metastore assistant")

	result, err := tool.Handler(nil, map[string]interface{}{"message": "what databases are there?"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result["answer"] != "There are two databases." {
		t.Fatalf("answer = %v", result["answer"])
	}
	key, _ := result["session_key"].(string)
	if key == "" {
		t.Fatal("handler returned no session key")
	}
	if h.count() != 1 {
		t.Fatalf("hive called %d times, want 1", h.count())
	}

	// A second call with the returned key continues the same conversation.
	result, err = tool.Handler(nil, map[string]interface{}{
		"message":     "and now?",
		"session_key": key,
	})
	if err != nil {
		t.Fatalf("second handler call: %v", err)
	}
	if result["session_key"] != key {
		t.Fatalf("session key changed: %v != %v", result["session_key"], key)
	}
	sess, ok := a.Sessions().Get(key)
	if !ok {
		t.Fatalf("session %q not found", key)
	}
	var users int
	for _, m := range sess.History() {
		if m.Role == models.RoleUser {
			users++
		}
	}
	if users != 2 {
		t.Fatalf("session holds %d user messages, want 2", users)
	}
}

func TestUTCPHandlerRejectsMissingMessage(t *testing.T) {
	h := newHiveStub(t, http.StatusOK, `{}`)
	model := models.NewScriptedModel()
	a := newTestAgent(t, model, h)
	tool := a.AsUTCPTool("hive.agent", "Hive metastore assistant")

	for _, inputs := range []map[string]interface{}{
		{},
		{"message": "   "},
		{"message": 42},
	} {
		if _, err := tool.Handler(nil, inputs); err == nil {
			t.Fatalf("handler accepted inputs %v", inputs)
		}
	}
	if model.Calls() != 0 {
		t.Fatalf("model called %d times for rejected inputs", model.Calls())
	}
}

func TestRegisterAsUTCPProvider(t *testing.T) {
	ctx := context.Background()
	h := newHiveStub(t, http.StatusOK, `{}`)
	model := models.NewScriptedModel(
		models.Completion{Text: "Hello from the metastore agent."},
	)
	a := newTestAgent(t, model, h)

	client, err := utcp.NewUTCPClient(ctx, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewUTCPClient: %v", err)
	}
	if err := a.RegisterAsUTCPProvider(ctx, client, "hive.agent", "Hive metastore assistant"); err != nil {
		t.Fatalf("RegisterAsUTCPProvider: %v", err)
	}

	out, err := client.CallTool(ctx, "hive.agent", map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	result, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("CallTool returned %T", out)
	}
	if result["answer"] != "Hello from the metastore agent." {
		t.Fatalf("answer = %v", result["answer"])
	}
	if result["session_key"] == "" {
		t.Fatal("no session key in result")
	}

	if _, err := client.CallTool(ctx, "hive.agent", map[string]any{}); err == nil {
		t.Fatal("CallTool accepted a call without a message")
	}
}

package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hivegate/hive-agent/src/hive"
)

func newHiveRegistry(t *testing.T, handler http.HandlerFunc) (*Registry, *int64) {
	t.Helper()
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := hive.NewClient(srv.URL, "", time.Second)
	reg, err := NewRegistry(NewHiveTools(client)...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg, &calls
}

func TestInvokeValidationShortCircuits(t *testing.T) {
	reg, calls := newHiveRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	out := reg.Invoke(context.Background(), "delete_table", map[string]any{"schema": "public"})
	if out.OK {
		t.Fatalf("invocation with missing table_name succeeded")
	}
	if out.Kind != KindValidation {
		t.Fatalf("Kind = %q, want validation", out.Kind)
	}
	if *calls != 0 {
		t.Fatalf("remote called %d times during validation failure, want 0", *calls)
	}
}

func TestInvokeRejectsUnknownArgument(t *testing.T) {
	reg, calls := newHiveRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	out := reg.Invoke(context.Background(), "list_tables", map[string]any{
		"schema": "public",
		"force":  true,
	})
	if out.Kind != KindValidation {
		t.Fatalf("Kind = %q, want validation", out.Kind)
	}
	if *calls != 0 {
		t.Fatalf("remote called despite unknown argument")
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	reg, _ := newHiveRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	out := reg.Invoke(context.Background(), "drop_everything", nil)
	if out.Kind != KindUnknownTool {
		t.Fatalf("Kind = %q, want unknown_tool", out.Kind)
	}
}

func TestInvokeForwardsExactArguments(t *testing.T) {
	var gotSchema, gotTable string
	reg, _ := newHiveRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		gotSchema = r.URL.Query().Get("schema")
		gotTable = r.URL.Query().Get("table")
		w.Write([]byte(`{"columns":[]}`))
	})

	out := reg.Invoke(context.Background(), "get_table_info", map[string]any{
		"schema":     "public",
		"table_name": "measure",
	})
	if !out.OK {
		t.Fatalf("Invoke failed: %+v", out)
	}
	if gotSchema != "public" || gotTable != "measure" {
		t.Fatalf("forwarded schema=%q table=%q", gotSchema, gotTable)
	}
	res, ok := out.Payload.(hive.Result)
	if !ok || !res.Success {
		t.Fatalf("Payload = %+v", out.Payload)
	}
}

func TestCreateTableColumnValidation(t *testing.T) {
	reg, calls := newHiveRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	out := reg.Invoke(context.Background(), "create_table", map[string]any{
		"schema":     "public",
		"table_name": "events",
		"columns":    []any{map[string]any{"name": "id"}}, // missing type
	})
	if out.Kind != KindValidation {
		t.Fatalf("Kind = %q, want validation", out.Kind)
	}
	if *calls != 0 {
		t.Fatalf("remote called despite invalid column")
	}
}

func TestRegistrySpecsCoverAllTools(t *testing.T) {
	reg, _ := newHiveRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	specs := reg.Specs()
	if len(specs) != 5 {
		t.Fatalf("Specs() returned %d tools, want 5", len(specs))
	}
	want := map[string]bool{
		"delete_table": false, "create_table": false, "get_table_info": false,
		"list_tables": false, "list_databases": false,
	}
	for _, s := range specs {
		if _, ok := want[s.Name]; !ok {
			t.Fatalf("unexpected tool %q", s.Name)
		}
		want[s.Name] = true
		if s.Parameters["type"] != "object" {
			t.Fatalf("tool %q schema is not an object", s.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("tool %q missing from specs", name)
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	def := Definition{
		Name: "x",
		Run: func(ctx context.Context, args map[string]any) (hive.Result, error) {
			return hive.Result{}, nil
		},
	}
	if _, err := NewRegistry(def, def); err == nil {
		t.Fatalf("duplicate registration accepted")
	}
}

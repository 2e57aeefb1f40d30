package hive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientSendsTokenHeader(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("agent_token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"databases":["default","public"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "default-token", time.Second)
	res, err := c.ListDatabases(context.Background())
	if err != nil {
		t.Fatalf("ListDatabases: %v", err)
	}
	if gotToken != "default-token" {
		t.Fatalf("agent_token header = %q, want default-token", gotToken)
	}
	if !res.Success || res.StatusCode != 200 {
		t.Fatalf("Result = %+v, want success 200", res)
	}
}

func TestContextTokenOverridesDefault(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("agent_token")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "default-token", time.Second)
	ctx := ContextWithToken(context.Background(), "session-token")
	if _, err := c.ListDatabases(ctx); err != nil {
		t.Fatalf("ListDatabases: %v", err)
	}
	if gotToken != "session-token" {
		t.Fatalf("agent_token header = %q, want session-token", gotToken)
	}
}

func TestDeleteTableBodyAndMethod(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"dropped":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	res, err := c.DeleteTable(context.Background(), "public", "measure")
	if err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("method = %s, want DELETE", gotMethod)
	}
	if gotBody["schema"] != "public" || gotBody["table"] != "measure" {
		t.Fatalf("body = %v", gotBody)
	}
	data, ok := res.Data.(map[string]any)
	if !ok || data["dropped"] != true {
		t.Fatalf("Data = %v", res.Data)
	}
}

func TestNonJSONBodyFallsBackToRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("metastore unavailable"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	res, err := c.ListTables(context.Background(), "public")
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if res.Success {
		t.Fatalf("Success = true for status 500")
	}
	data, ok := res.Data.(map[string]any)
	if !ok || data["raw"] != "metastore unavailable" {
		t.Fatalf("Data = %v, want raw fallback", res.Data)
	}
}

func TestGetTableInfoQueryParams(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"schema": r.URL.Query().Get("schema"),
			"table":  r.URL.Query().Get("table"),
		}
		w.Write([]byte(`{"columns":[{"name":"id","type":"bigint"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if _, err := c.GetTableInfo(context.Background(), "public", "measure"); err != nil {
		t.Fatalf("GetTableInfo: %v", err)
	}
	if gotQuery["schema"] != "public" || gotQuery["table"] != "measure" {
		t.Fatalf("query = %v", gotQuery)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["username"] != "admin" || creds["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"token":"tok-123"}`))
	}))
	defer srv.Close()

	token, err := Login(context.Background(), srv.URL, "admin", "secret", time.Second)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("token = %q", token)
	}

	if _, err := Login(context.Background(), srv.URL, "admin", "wrong", time.Second); err == nil {
		t.Fatalf("Login with bad password should fail")
	}
}

package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Hive gateway REST API. The zero token is valid for
// anonymous deployments; authenticated callers either set a default token or
// carry a per-request token in the context.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Result is the normalized response for every Hive call. Data holds the
// decoded JSON body, or {"raw": <text>} when the body is not JSON.
type Result struct {
	StatusCode int  `json:"status_code"`
	Success    bool `json:"success"`
	Data       any  `json:"data"`
}

// Column describes one column of a table being created.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type tokenKey struct{}

// ContextWithToken attaches a per-request auth token. It overrides the
// client's default token, which keeps one shared Client usable across web
// sessions with distinct credentials.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token set by ContextWithToken, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Login authenticates against the gateway and returns an agent token.
func Login(ctx context.Context, baseURL, username, password string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("login response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response missing token")
	}
	return out.Token, nil
}

// DeleteTable drops schema.table.
func (c *Client) DeleteTable(ctx context.Context, schema, table string) (Result, error) {
	return c.do(ctx, http.MethodDelete, "/api/hive/table", map[string]any{
		"schema": schema,
		"table":  table,
	}, nil)
}

// CreateTable creates schema.table with the given columns.
func (c *Client) CreateTable(ctx context.Context, schema, table string, columns []Column) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/hive/table", map[string]any{
		"schema":  schema,
		"table":   table,
		"columns": columns,
	}, nil)
}

// GetTableInfo returns the metadata of schema.table.
func (c *Client) GetTableInfo(ctx context.Context, schema, table string) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/hive/table", nil, url.Values{
		"schema": {schema},
		"table":  {table},
	})
}

// ListTables lists the tables of one schema.
func (c *Client) ListTables(ctx context.Context, schema string) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/hive/tables", nil, url.Values{
		"schema": {schema},
	})
}

// ListDatabases lists all databases in the metastore.
func (c *Client) ListDatabases(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/hive/databases", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body map[string]any, query url.Values) (Result, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Result{}, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return Result{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.token
	if t, ok := TokenFromContext(ctx); ok {
		token = t
	}
	if token != "" {
		req.Header.Set("agent_token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	res := Result{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
	}
	var data any
	if len(raw) > 0 && json.Unmarshal(raw, &data) == nil {
		res.Data = data
	} else {
		res.Data = map[string]any{"raw": string(raw)}
	}
	return res, nil
}

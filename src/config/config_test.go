package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Provider != "ollama" {
		t.Fatalf("Model.Provider = %q, want ollama default", cfg.Model.Provider)
	}
	if cfg.Agent.MaxToolRounds != 5 {
		t.Fatalf("Agent.MaxToolRounds = %d, want 5", cfg.Agent.MaxToolRounds)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("model:\n  provider: openai\n  name: gpt-4o-mini\nrag:\n  top_k: 7\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Provider != "openai" || cfg.Model.Name != "gpt-4o-mini" {
		t.Fatalf("model not overridden: %+v", cfg.Model)
	}
	if cfg.RAG.TopK != 7 {
		t.Fatalf("RAG.TopK = %d, want 7", cfg.RAG.TopK)
	}
	if cfg.Hive.BaseURL != "http://localhost:8080" {
		t.Fatalf("untouched default changed: %q", cfg.Hive.BaseURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("hive:\n  base_url: http://file:9999\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HIVE_API_BASE_URL", "http://env:8080")
	t.Setenv("RAG_N_RESULTS", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hive.BaseURL != "http://env:8080" {
		t.Fatalf("Hive.BaseURL = %q, env should win over file", cfg.Hive.BaseURL)
	}
	if cfg.RAG.TopK != 9 {
		t.Fatalf("RAG.TopK = %d, want 9 from env", cfg.RAG.TopK)
	}
}

func TestValidateRejectsBadBounds(t *testing.T) {
	cfg := Default()
	cfg.Agent.MaxToolRounds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted zero tool rounds")
	}

	cfg = Default()
	cfg.Embedding.Dim = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted zero embedding dim")
	}
}

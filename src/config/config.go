package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML files can say "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// D returns the underlying time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration. Values resolve in three layers:
// built-in defaults, then the YAML file, then environment variables.
type Config struct {
	Model       ModelConfig       `yaml:"model"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	RAG         RAGConfig         `yaml:"rag"`
	Hive        HiveConfig        `yaml:"hive"`
	Agent       AgentConfig       `yaml:"agent"`
	Web         WebConfig         `yaml:"web"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ModelConfig struct {
	Provider string   `yaml:"provider"` // ollama, openai, anthropic, gemini
	Name     string   `yaml:"name"`
	BaseURL  string   `yaml:"base_url"`
	APIKey   string   `yaml:"api_key"`
	Timeout  Duration `yaml:"timeout"`
	CacheTTL Duration `yaml:"cache_ttl"`
	CacheLen int      `yaml:"cache_len"`
}

type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // openai, ollama, fastembed, dummy
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Dim      int    `yaml:"dim"`
}

type VectorStoreConfig struct {
	Backend    string `yaml:"backend"` // memory, sqlite, postgres, mongodb
	Path       string `yaml:"path"`
	DSN        string `yaml:"dsn"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type RAGConfig struct {
	KnowledgeDir string   `yaml:"knowledge_dir"`
	TopK         int      `yaml:"top_k"`
	Timeout      Duration `yaml:"timeout"`
}

type HiveConfig struct {
	BaseURL  string   `yaml:"base_url"`
	Token    string   `yaml:"token"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Timeout  Duration `yaml:"timeout"`
}

type AgentConfig struct {
	MaxToolRounds  int      `yaml:"max_tool_rounds"`
	MaxHistory     int      `yaml:"max_history"`
	TokenBudget    int      `yaml:"token_budget"`
	RetryBackoff   Duration `yaml:"retry_backoff"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Console    bool   `yaml:"console"`
}

// Default returns the built-in configuration, tuned for a local Ollama
// deployment with an in-process knowledge base.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider: "ollama",
			Name:     "qwen3:8b",
			BaseURL:  "http://localhost:11434",
			Timeout:  Duration(120 * time.Second),
			CacheTTL: Duration(5 * time.Minute),
			CacheLen: 128,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
			Dim:      768,
		},
		VectorStore: VectorStoreConfig{
			Backend: "memory",
			Path:    "knowledge.db",
		},
		RAG: RAGConfig{
			KnowledgeDir: "knowledge",
			TopK:         4,
			Timeout:      Duration(10 * time.Second),
		},
		Hive: HiveConfig{
			BaseURL: "http://localhost:8080",
			Timeout: Duration(30 * time.Second),
		},
		Agent: AgentConfig{
			MaxToolRounds:  5,
			MaxHistory:     40,
			TokenBudget:    3000,
			RetryBackoff:   Duration(500 * time.Millisecond),
			RequestTimeout: Duration(120 * time.Second),
		},
		Web: WebConfig{
			Addr: ":8000",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "logs/agent.log",
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Console:    true,
		},
	}
}

// Load resolves the configuration. A missing file is not an error; the
// defaults plus environment overrides still apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to env overlay
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values that would make the agent misbehave silently.
func (c Config) Validate() error {
	if c.Agent.MaxToolRounds < 1 {
		return fmt.Errorf("agent.max_tool_rounds must be at least 1, got %d", c.Agent.MaxToolRounds)
	}
	if c.Agent.MaxHistory < 2 {
		return fmt.Errorf("agent.max_history must be at least 2, got %d", c.Agent.MaxHistory)
	}
	if c.RAG.TopK < 0 {
		return fmt.Errorf("rag.top_k must not be negative, got %d", c.RAG.TopK)
	}
	if c.Embedding.Dim < 1 {
		return fmt.Errorf("embedding.dim must be positive, got %d", c.Embedding.Dim)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envStr("MODEL_PROVIDER", &cfg.Model.Provider)
	envStr("MODEL_NAME", &cfg.Model.Name)
	envStr("OLLAMA_MODEL", &cfg.Model.Name)
	envStr("OLLAMA_BASE_URL", &cfg.Model.BaseURL)
	envStr("MODEL_API_KEY", &cfg.Model.APIKey)
	envStr("OPENAI_API_KEY", &cfg.Model.APIKey)

	envStr("RAG_EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	envStr("RAG_EMBEDDING_MODEL", &cfg.Embedding.Model)
	envStr("RAG_EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL)
	envInt("RAG_EMBEDDING_DIM", &cfg.Embedding.Dim)

	envStr("VECTOR_STORE_BACKEND", &cfg.VectorStore.Backend)
	envStr("VECTOR_STORE_PATH", &cfg.VectorStore.Path)
	envStr("VECTOR_STORE_DSN", &cfg.VectorStore.DSN)
	envStr("VECTOR_STORE_DATABASE", &cfg.VectorStore.Database)
	envStr("VECTOR_STORE_COLLECTION", &cfg.VectorStore.Collection)

	envStr("RAG_KNOWLEDGE_DIR", &cfg.RAG.KnowledgeDir)
	envInt("RAG_N_RESULTS", &cfg.RAG.TopK)

	envStr("HIVE_API_BASE_URL", &cfg.Hive.BaseURL)
	envStr("HIVE_AGENT_TOKEN", &cfg.Hive.Token)
	envStr("HIVE_USERNAME", &cfg.Hive.Username)
	envStr("HIVE_PASSWORD", &cfg.Hive.Password)

	envInt("AGENT_MAX_TOOL_ROUNDS", &cfg.Agent.MaxToolRounds)
	envInt("AGENT_MAX_HISTORY", &cfg.Agent.MaxHistory)
	envInt("AGENT_TOKEN_BUDGET", &cfg.Agent.TokenBudget)

	envStr("WEB_ADDR", &cfg.Web.Addr)
	envStr("LOG_LEVEL", &cfg.Logging.Level)
	envStr("LOG_FILE", &cfg.Logging.File)
}

func envStr(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

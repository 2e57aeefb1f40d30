package main

import (
	"context"
	"fmt"
	"log/slog"

	agent "github.com/hivegate/hive-agent"
	"github.com/hivegate/hive-agent/src/config"
	"github.com/hivegate/hive-agent/src/hive"
	"github.com/hivegate/hive-agent/src/logging"
	"github.com/hivegate/hive-agent/src/memory/embed"
	"github.com/hivegate/hive-agent/src/memory/store"
	"github.com/hivegate/hive-agent/src/models"
	"github.com/hivegate/hive-agent/src/rag"
	"github.com/hivegate/hive-agent/src/session"
	"github.com/hivegate/hive-agent/src/telemetry"
	"github.com/hivegate/hive-agent/src/tools"
)

// app bundles everything a command needs after wiring.
type app struct {
	cfg     config.Config
	agent   *agent.Agent
	logger  *slog.Logger
	cleanup func(context.Context) error
}

// buildApp wires the full stack from configuration: logging, telemetry,
// embedding, vector store, knowledge retriever, completion model, Hive
// client and the tool registry.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}

	tracer, meter, telemetryCleanup, err := telemetry.Init(ctx, "hive-agent", "logs")
	if err != nil {
		return nil, fmt.Errorf("set up telemetry: %w", err)
	}

	embedder, err := embed.New(cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.APIKey)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	vectorStore, err := store.Open(ctx, store.Options{
		Backend:    cfg.VectorStore.Backend,
		Path:       cfg.VectorStore.Path,
		DSN:        cfg.VectorStore.DSN,
		Database:   cfg.VectorStore.Database,
		Collection: cfg.VectorStore.Collection,
		Dim:        cfg.Embedding.Dim,
	})
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	retriever := rag.NewRetriever(embedder, vectorStore,
		cfg.RAG.KnowledgeDir, cfg.RAG.TopK, cfg.RAG.Timeout.D(), logger)
	if err := retriever.EnsureIndex(ctx); err != nil {
		logger.Warn("knowledge base indexing failed, retrieval disabled for now", "error", err)
	}

	model, err := models.New(cfg.Model.Provider, cfg.Model.Name, cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.Timeout.D())
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	if cfg.Model.CacheLen > 0 {
		model = models.NewCachedModel(model, cfg.Model.CacheLen, cfg.Model.CacheTTL.D())
	}

	hiveClient := hive.NewClient(cfg.Hive.BaseURL, cfg.Hive.Token, cfg.Hive.Timeout.D())
	registry, err := tools.NewRegistry(tools.NewHiveTools(hiveClient)...)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	a, err := agent.New(agent.Options{
		Model:         model,
		Registry:      registry,
		Retriever:     retriever,
		Sessions:      session.NewManager(cfg.Agent.MaxHistory),
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		TokenBudget:   cfg.Agent.TokenBudget,
		RetryBackoff:  cfg.Agent.RetryBackoff.D(),
		Logger:        logger,
		Tracer:        tracer,
		Meter:         meter,
	})
	if err != nil {
		return nil, err
	}

	cleanup := func(ctx context.Context) error {
		storeErr := vectorStore.Close()
		if err := telemetryCleanup(ctx); err != nil {
			return err
		}
		return storeErr
	}
	return &app{cfg: cfg, agent: a, logger: logger, cleanup: cleanup}, nil
}

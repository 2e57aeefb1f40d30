package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hivegate/hive-agent/src/config"
	"github.com/hivegate/hive-agent/src/logging"
	"github.com/hivegate/hive-agent/src/memory/embed"
	"github.com/hivegate/hive-agent/src/memory/store"
	"github.com/hivegate/hive-agent/src/rag"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the knowledge base index from the knowledge directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.Setup(cfg.Logging)
			if err != nil {
				return err
			}

			embedder, err := embed.New(cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.APIKey)
			if err != nil {
				return err
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
				return err
			}
			defer vectorStore.Close()

			retriever := rag.NewRetriever(embedder, vectorStore,
				cfg.RAG.KnowledgeDir, cfg.RAG.TopK, cfg.RAG.Timeout.D(), logger)
			return retriever.Rebuild(ctx)
		},
	}
}

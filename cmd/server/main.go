package main

import (
	"log/slog"
	"os"

	kaf "github.com/VilyWonca/KAF-BACK"
	"github.com/VilyWonca/KAF-BACK/config"
	"github.com/VilyWonca/KAF-BACK/core/answer"
	"github.com/VilyWonca/KAF-BACK/core/ingest"
	"github.com/VilyWonca/KAF-BACK/core/llm"
	"github.com/VilyWonca/KAF-BACK/database"
	"github.com/VilyWonca/KAF-BACK/helper"
	"github.com/VilyWonca/KAF-BACK/server"
)

func main() {
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Loading configuration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	embed, err := kaf.Embedder(cfg)
	if err != nil {
		logger.Error("Creating embedder failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	processor, err := kaf.Processor(cfg, embed)
	if err != nil {
		logger.Error("Creating processing pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// storage failures at startup degrade the service instead of killing it
	var documents database.DocumentsDBHandlerFunctions
	var ingestPipeline *ingest.Pipeline

	db, err := helper.NewDatabase("documents", &cfg.Database, logger)
	if err != nil {
		logger.Warn("Database unavailable, starting degraded", slog.String("error", err.Error()))
	} else {
		handler, err := database.NewDocumentsDBHandler(db, cfg.EmbeddingDim, false)
		if err != nil {
			logger.Warn("Document storage unavailable, starting degraded", slog.String("error", err.Error()))
		} else {
			documents = handler
			ingestPipeline = ingest.NewPipeline(documents, processor, logger)
		}
	}

	chatClient := llm.NewClient(llm.Config{BaseURL: cfg.OllamaURL, Model: cfg.OllamaChatModel}, logger)
	composer := answer.NewComposer(chatClient, cfg.StreamTimeout, logger)

	srv := server.NewServer(cfg, documents, ingestPipeline, composer, embed, logger)
	if err := srv.Run(); err != nil {
		logger.Error("Server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

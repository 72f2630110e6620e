package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	kaf "github.com/VilyWonca/KAF-BACK"
	"github.com/VilyWonca/KAF-BACK/config"
	"github.com/VilyWonca/KAF-BACK/core/ingest"
	"github.com/VilyWonca/KAF-BACK/database"
	"github.com/VilyWonca/KAF-BACK/helper"
)

// loadbooks ingests every PDF in a directory into document storage.
// Meant for bulk-loading an existing book collection without going
// through the upload endpoint.
func main() {
	var (
		dir   = flag.String("dir", "", "directory with PDF files to ingest (default: BOOKS_DIR)")
		wipe  = flag.Bool("wipe", false, "delete all stored documents before ingesting")
		force = flag.Bool("force", false, "reload the SQL functions even if present")
	)
	flag.Parse()

	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Loading configuration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dir == "" {
		*dir = cfg.BooksDir
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

	db, err := helper.NewDatabase("documents", &cfg.Database, logger)
	if err != nil {
		logger.Error("Connecting to database failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	documents, err := database.NewDocumentsDBHandler(db, cfg.EmbeddingDim, *force)
	if err != nil {
		logger.Error("Initializing document storage failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *wipe {
		deleted, err := documents.DeleteAllDocuments()
		if err != nil {
			logger.Error("Wiping documents failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Wiped document storage", slog.Int64("deleted", deleted))
	}

	results, err := ingest.NewPipeline(documents, processor, logger).IngestDirectory(context.Background(), *dir)
	if err != nil {
		logger.Error("Ingestion failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var inserted, failed, skipped int
	for _, result := range results {
		inserted += result.ChunksInserted
		failed += result.ChunksFailed
		if result.Err != nil {
			skipped++
		}
	}

	logger.Info("Ingestion finished",
		slog.Int("documents", len(results)),
		slog.Int("skipped", skipped),
		slog.Int("chunks_inserted", inserted),
		slog.Int("chunks_failed", failed))
}

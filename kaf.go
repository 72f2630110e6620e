package kaf

import (
	"context"
	"log/slog"
	"os"

	"github.com/VilyWonca/KAF-BACK/config"
	"github.com/VilyWonca/KAF-BACK/core/answer"
	"github.com/VilyWonca/KAF-BACK/core/ingest"
	"github.com/VilyWonca/KAF-BACK/core/llm"
	"github.com/VilyWonca/KAF-BACK/core/pipeline"
	"github.com/VilyWonca/KAF-BACK/core/textproc"
	"github.com/VilyWonca/KAF-BACK/database"
	"github.com/VilyWonca/KAF-BACK/helper"
	"github.com/VilyWonca/KAF-BACK/model"
)

// Service provides a unified interface to document storage, the
// ingestion pipeline and the answer composer for embedding the system
// into other programs
type Service struct {
	DB        *helper.Database
	Documents *database.DocumentsDBHandler
	Processor *pipeline.Pipeline
	Ingest    *ingest.Pipeline
	Composer  *answer.Composer
	Embed     pipeline.EmbedFunc

	cfg *config.Config
	log *slog.Logger
}

// NewService creates a fully wired Service instance
func NewService(cfg *config.Config) (*Service, error) {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	db, err := helper.NewDatabase("kaf", &cfg.Database, logger)
	if err != nil {
		return nil, helper.NewError("connect to database", err)
	}

	documents, err := database.NewDocumentsDBHandler(db, cfg.EmbeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	embed, err := Embedder(cfg)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	processor, err := Processor(cfg, embed)
	if err != nil {
		return nil, helper.NewError("create processing pipeline", err)
	}

	chatClient := llm.NewClient(llm.Config{BaseURL: cfg.OllamaURL, Model: cfg.OllamaChatModel}, logger)

	return &Service{
		DB:        db,
		Documents: documents,
		Processor: processor,
		Ingest:    ingest.NewPipeline(documents, processor, logger),
		Composer:  answer.NewComposer(chatClient, cfg.StreamTimeout, logger),
		Embed:     embed,
		cfg:       cfg,
		log:       logger,
	}, nil
}

// Embedder builds the configured embedding function, either the local
// in-process model or the Ollama embeddings endpoint
func Embedder(cfg *config.Config) (pipeline.EmbedFunc, error) {
	switch cfg.Embedder {
	case "ollama":
		embedder := pipeline.NewOllamaEmbedder(pipeline.OllamaEmbedderConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaEmbedModel,
		})
		return embedder.EmbedFunc(), nil
	default:
		return pipeline.LocalEmbedder("sentence-transformers/all-MiniLM-L6-v2", cfg.ModelsDir)
	}
}

// Processor builds the configured chunking and embedding pipeline
func Processor(cfg *config.Config, embed pipeline.EmbedFunc) (*pipeline.Pipeline, error) {
	filter := textproc.NewNoiseFilter(cfg.NoiseMinLength, cfg.NoiseMinWords, cfg.NoiseDotRun)
	chunker, err := pipeline.NewChunker(cfg.ChunkStrategy, cfg.ChunkMaxLength, cfg.SimilarityThreshold, filter, embed)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(chunker, embed), nil
}

// IngestDirectory ingests every PDF in dir
func (s *Service) IngestDirectory(ctx context.Context, dir string) ([]ingest.Result, error) {
	return s.Ingest.IngestDirectory(ctx, dir)
}

// IngestFile ingests a single PDF
func (s *Service) IngestFile(ctx context.Context, path string) ingest.Result {
	return s.Ingest.IngestFile(ctx, path)
}

// Search retrieves ranked passages for a question in the given mode
func (s *Service) Search(ctx context.Context, question string, mode model.SearchMode) ([]*model.RetrievedPassage, error) {
	searchConfig := model.DefaultSearchConfig(mode)
	if searchConfig.Mode == model.SearchModeHybrid {
		searchConfig.Alpha = s.cfg.HybridAlpha
	}

	var embedding []float32
	if searchConfig.Mode != model.SearchModeKeyword {
		var err error
		embedding, err = s.Embed(question)
		if err != nil {
			return nil, helper.NewError("embed question", err)
		}
	}

	return s.Documents.SearchByText(ctx, question, embedding, searchConfig)
}

// Ask retrieves passages for the question and streams a grounded answer
// to the emitter, returning the full answer text
func (s *Service) Ask(ctx context.Context, question string, mode model.SearchMode, emitter answer.Emitter) (string, error) {
	passages, err := s.Search(ctx, question, mode)
	if err != nil {
		return "", err
	}
	return s.Composer.Answer(ctx, question, passages, emitter)
}

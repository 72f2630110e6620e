package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/VilyWonca/KAF-BACK/core/pipeline"
	"github.com/VilyWonca/KAF-BACK/core/textproc"
	"github.com/VilyWonca/KAF-BACK/database"
	"github.com/VilyWonca/KAF-BACK/helper"
	"github.com/VilyWonca/KAF-BACK/model"
)

// InsertOutcome is the explicit result of one storage insert attempt
type InsertOutcome int

const (
	InsertSuccess InsertOutcome = iota
	// InsertTransient means the connection was closed; a reconnect and a
	// single retry are allowed before degrading to permanent.
	InsertTransient
	InsertPermanent
)

// Result summarizes the ingestion of a single source document
type Result struct {
	Filename       string
	Pages          int
	ChunksInserted int
	ChunksFailed   int
	// Err is set when extraction failed and the document was skipped
	Err error
}

// Pipeline orchestrates extraction, cleaning, chunking, metadata
// resolution and storage of source documents. A batch never aborts:
// extraction failures skip the document, insert failures skip the chunk.
type Pipeline struct {
	documents database.DocumentsDBHandlerFunctions
	processor *pipeline.Pipeline
	log       *slog.Logger
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(documents database.DocumentsDBHandlerFunctions, processor *pipeline.Pipeline, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		documents: documents,
		processor: processor,
		log:       logger,
	}
}

// IngestDirectory ingests every PDF file in dir, one Result per file.
// Non-PDF files are ignored.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, helper.NewError("read ingest directory", err)
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, p.IngestFile(ctx, filepath.Join(dir, entry.Name())))
	}

	return results, nil
}

// IngestFile ingests a single PDF: extract pages, resolve metadata once,
// then clean, chunk and store every page.
func (p *Pipeline) IngestFile(ctx context.Context, path string) Result {
	filename := filepath.Base(path)
	result := Result{Filename: filename}

	pages, info, err := ExtractPages(path)
	if err != nil {
		p.log.Error("Extraction failed, skipping document",
			slog.String("file", filename), slog.String("error", err.Error()))
		result.Err = err
		return result
	}
	result.Pages = len(pages)

	meta := ResolveMetadata(filename, info)

	p.log.Info("Ingesting document",
		slog.String("file", filename),
		slog.String("title", meta.BookTitle),
		slog.String("author", meta.Author),
		slog.Int("pages", len(pages)))

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		cleaned := textproc.Clean(page.RawText)
		chunks, err := p.processor.Process(cleaned)
		if err != nil {
			p.log.Error("Chunking failed, skipping page",
				slog.String("file", filename),
				slog.Int("page", page.PageNumber),
				slog.String("error", err.Error()))
			continue
		}

		for i, chunk := range chunks {
			record := &model.DocumentRecord{
				Text:        chunk.Text,
				Filename:    model.ChunkFilename(filename, page.PageNumber, i),
				BookTitle:   meta.BookTitle,
				Author:      meta.Author,
				EditionCode: meta.EditionCode,
				PageNumber:  page.PageNumber,
				Embedding:   chunk.Embedding,
			}

			if p.insertWithRetry(record) == InsertSuccess {
				result.ChunksInserted++
			} else {
				result.ChunksFailed++
			}
		}
	}

	p.log.Info("Document ingested",
		slog.String("file", filename),
		slog.Int("inserted", result.ChunksInserted),
		slog.Int("failed", result.ChunksFailed))

	return result
}

// insertWithRetry performs one insert with the one-shot retry policy:
// a transient connection-closed failure triggers exactly one
// reconnect-and-retry, after which the failure is permanent.
func (p *Pipeline) insertWithRetry(record *model.DocumentRecord) InsertOutcome {
	outcome := p.insertOnce(record)
	if outcome != InsertTransient {
		return outcome
	}

	p.log.Warn("Connection closed on insert, reconnecting",
		slog.String("chunk", record.Filename))

	if err := p.documents.Reconnect(); err != nil {
		p.log.Error("Reconnect failed, skipping chunk",
			slog.String("chunk", record.Filename),
			slog.String("error", err.Error()))
		return InsertPermanent
	}

	outcome = p.insertOnce(record)
	if outcome == InsertTransient {
		// the single retry is spent
		outcome = InsertPermanent
	}
	if outcome == InsertPermanent {
		p.log.Error("Insert failed after retry, skipping chunk",
			slog.String("chunk", record.Filename))
	}
	return outcome
}

func (p *Pipeline) insertOnce(record *model.DocumentRecord) InsertOutcome {
	err := p.documents.InsertDocument(record)
	switch {
	case err == nil:
		return InsertSuccess
	case errors.Is(err, database.ErrConnectionClosed):
		return InsertTransient
	default:
		p.log.Error("Insert failed, skipping chunk",
			slog.String("chunk", record.Filename),
			slog.String("error", err.Error()))
		return InsertPermanent
	}
}

package database

import (
	"bufio"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/VilyWonca/KAF-BACK/helper"
	"github.com/VilyWonca/KAF-BACK/model"
	loadSql "github.com/VilyWonca/KAF-BACK/sql"
)

// ErrConnectionClosed marks insert failures caused by a dropped database
// connection. Callers may reconnect and retry; any other failure is
// permanent for the affected record.
var ErrConnectionClosed = errors.New("connection closed")

// DocumentsDBHandlerFunctions defines the interface for document storage operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(record *model.DocumentRecord) error
	SearchByText(ctx context.Context, query string, embedding []float32, config model.SearchConfig) ([]*model.RetrievedPassage, error)
	ExportTexts(w io.Writer) error
	CountDocuments() (int64, error)
	DeleteAllDocuments() (int64, error)
	Reconnect() error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It loads the document-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	handler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.Init(handler.db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	err = loadSql.LoadDocumentsSql(handler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = handler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return handler, nil
}

// CreateTable creates the 'documents' table with its indexes.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("initialize documents table", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a new document record and fills in its
// generated ID and creation time. A dropped connection is reported as
// ErrConnectionClosed so the caller can reconnect and retry once.
func (h *DocumentsDBHandler) InsertDocument(record *model.DocumentRecord) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3, $4, $5, $6, $7)`,
		record.Text,
		record.Filename,
		record.BookTitle,
		record.Author,
		record.EditionCode,
		record.PageNumber,
		pgvector.NewVector(record.Embedding),
	)

	err := row.Scan(
		&record.ID,
		&record.Text,
		&record.Filename,
		&record.BookTitle,
		&record.Author,
		&record.EditionCode,
		&record.PageNumber,
		&record.CreatedAt,
	)
	if err != nil {
		if isConnectionClosed(err) {
			return fmt.Errorf("insert document %q: %w", record.Filename, ErrConnectionClosed)
		}
		return helper.NewError("scan", err)
	}

	return nil
}

// SearchByText retrieves ranked passages for a query in the requested mode.
// Keyword mode ignores the embedding; similarity and hybrid modes require it.
func (h *DocumentsDBHandler) SearchByText(ctx context.Context, query string, embedding []float32, config model.SearchConfig) ([]*model.RetrievedPassage, error) {
	var rows *sql.Rows
	var err error

	switch config.Mode {
	case model.SearchModeSimilarity:
		rows, err = h.db.Instance.QueryContext(ctx,
			`SELECT * FROM search_documents_by_similarity($1, $2, $3)`,
			pgvector.NewVector(embedding), config.Limit, config.SimilarityThreshold,
		)
	case model.SearchModeKeyword:
		rows, err = h.db.Instance.QueryContext(ctx,
			`SELECT * FROM search_documents_by_keyword($1, $2)`,
			query, config.Limit,
		)
	case model.SearchModeHybrid:
		rows, err = h.db.Instance.QueryContext(ctx,
			`SELECT * FROM search_documents_hybrid($1, $2, $3, $4)`,
			query, pgvector.NewVector(embedding), config.Limit, config.Alpha,
		)
	default:
		return nil, helper.NewError("search", fmt.Errorf("unknown search mode: %s", config.Mode))
	}
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var passages []*model.RetrievedPassage
	for rows.Next() {
		passage := &model.RetrievedPassage{}
		err := rows.Scan(
			&passage.Title,
			&passage.Author,
			&passage.PageNumber,
			&passage.Text,
			&passage.Score,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		passages = append(passages, passage)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return passages, nil
}

// ExportTexts writes every stored chunk text to w in insertion order,
// separated by blank lines
func (h *DocumentsDBHandler) ExportTexts(w io.Writer) error {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_document_texts()`)
	if err != nil {
		return helper.NewError("query", err)
	}
	defer rows.Close()

	buffered := bufio.NewWriter(w)
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return helper.NewError("scan", err)
		}
		if _, err := buffered.WriteString(text + "\n\n"); err != nil {
			return helper.NewError("write", err)
		}
	}
	if err := rows.Err(); err != nil {
		return helper.NewError("rows", err)
	}

	return buffered.Flush()
}

// CountDocuments returns the number of stored records
func (h *DocumentsDBHandler) CountDocuments() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_documents()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteAllDocuments wipes the whole collection and returns the number of
// deleted records. Administrative operation; individual records are never
// deleted.
func (h *DocumentsDBHandler) DeleteAllDocuments() (int64, error) {
	var deleted int64
	err := h.db.Instance.QueryRow(`SELECT delete_all_documents()`).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	h.db.Logger.Info("Deleted all documents", slog.Int64("count", deleted))

	return deleted, nil
}

// Reconnect re-opens the underlying database connection
func (h *DocumentsDBHandler) Reconnect() error {
	return h.db.Reconnect()
}

func isConnectionClosed(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// uploadResult is the per-file status of an upload batch
type uploadResult struct {
	Filename       string `json:"filename"`
	Pages          int    `json:"pages"`
	ChunksInserted int    `json:"chunks_inserted"`
	ChunksFailed   int    `json:"chunks_failed"`
	Error          string `json:"error,omitempty"`
}

// handleUpload accepts a multipart batch of PDF files, ingests each one
// and archives it on success. A failing file never aborts the batch.
func (s *Server) handleUpload(c *gin.Context) {
	if s.storageUnavailable(c) {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in upload"})
		return
	}

	if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot prepare upload directory"})
		return
	}
	if err := os.MkdirAll(s.cfg.BooksDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot prepare books directory"})
		return
	}

	results := make([]uploadResult, 0, len(files))
	for _, file := range files {
		// the UUID prefix keeps concurrent uploads of the same book apart;
		// metadata parsing strips it again
		stored := uuid.NewString() + "-" + filepath.Base(file.Filename)
		staged := filepath.Join(s.cfg.UploadsDir, stored)

		if err := c.SaveUploadedFile(file, staged); err != nil {
			s.log.Error("Saving upload failed",
				slog.String("file", file.Filename), slog.String("error", err.Error()))
			results = append(results, uploadResult{Filename: file.Filename, Error: "saving upload failed"})
			continue
		}

		ingested := s.ingest.IngestFile(c.Request.Context(), staged)
		result := uploadResult{
			Filename:       file.Filename,
			Pages:          ingested.Pages,
			ChunksInserted: ingested.ChunksInserted,
			ChunksFailed:   ingested.ChunksFailed,
		}

		if ingested.Err != nil {
			result.Error = "ingestion failed"
			_ = os.Remove(staged)
		} else if err := os.Rename(staged, filepath.Join(s.cfg.BooksDir, stored)); err != nil {
			s.log.Warn("Archiving ingested file failed",
				slog.String("file", stored), slog.String("error", err.Error()))
		}

		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleDeleteDocuments wipes the whole collection
func (s *Server) handleDeleteDocuments(c *gin.Context) {
	if s.storageUnavailable(c) {
		return
	}

	deleted, err := s.documents.DeleteAllDocuments()
	if err != nil {
		s.log.Error("Deleting documents failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deleting documents failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// handleExport streams every stored chunk text as plain text
func (s *Server) handleExport(c *gin.Context) {
	if s.storageUnavailable(c) {
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="documents.txt"`)

	if err := s.documents.ExportTexts(c.Writer); err != nil {
		s.log.Error("Exporting documents failed", slog.String("error", err.Error()))
	}
}

package model

import (
	"fmt"
	"time"
)

// PageText is the raw text of a single PDF page as produced by extraction.
// Page numbers are 1-based.
type PageText struct {
	SourceFile string
	PageNumber int
	RawText    string
}

// BookMetadata describes the book a record belongs to. Values parsed from
// the filename take precedence over values embedded in the PDF; the PDF
// metadata is only the initial default.
type BookMetadata struct {
	BookTitle   string `json:"book_title"`
	Author      string `json:"author"`
	EditionCode string `json:"edition_code"`
}

// UnknownAuthor is the sentinel used when no author could be determined
const UnknownAuthor = "Unknown"

// DocumentRecord is the unit persisted to storage, one per chunk.
// Records are immutable after creation.
type DocumentRecord struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	Filename    string    `json:"filename"`
	BookTitle   string    `json:"book_title"`
	Author      string    `json:"author"`
	EditionCode string    `json:"edition_code"`
	PageNumber  int       `json:"page_number"`
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChunkFilename builds the synthetic identifier of a stored chunk,
// encoding the original filename, the page and the 1-based chunk index
func ChunkFilename(originalFilename string, pageNumber, chunkIndex int) string {
	return fmt.Sprintf("%s_page_%d_part_%d", originalFilename, pageNumber, chunkIndex+1)
}

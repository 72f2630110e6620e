package ingest

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/VilyWonca/KAF-BACK/model"
)

// titleAuthorSeparator is the filename convention separating the book
// title from the author: "War and Peace ... Leo Tolstoy.pdf"
const titleAuthorSeparator = " ... "

// StripUUIDPrefix removes an upload-generated UUID prefix from a
// filename. The prefix is only stripped when the leading 36 characters
// parse as a valid UUID followed by a hyphen; anything else is left
// untouched.
func StripUUIDPrefix(filename string) string {
	if len(filename) > 37 && filename[36] == '-' {
		if _, err := uuid.Parse(filename[:36]); err == nil {
			return filename[37:]
		}
	}
	return filename
}

// ParseFilename derives the book title and author from the stored
// filename. Without the separator convention the whole cleaned name is
// the title and the author is unknown.
func ParseFilename(filename string) (title, author string) {
	cleaned := StripUUIDPrefix(filename)
	base := strings.TrimSuffix(cleaned, filepath.Ext(cleaned))

	parts := strings.Split(base, titleAuthorSeparator)
	if len(parts) == 2 {
		title, author = parts[0], parts[1]
	} else {
		title, author = base, model.UnknownAuthor
	}

	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	author = strings.TrimSpace(strings.TrimRight(author, "."))
	return title, author
}

// ResolveMetadata produces the book metadata for a document. PDF-embedded
// values are only the initial default; filename-derived title and author
// always overwrite them when filename parsing runs.
func ResolveMetadata(filename string, info DocumentInfo) model.BookMetadata {
	meta := model.BookMetadata{
		BookTitle:   "Unknown",
		Author:      model.UnknownAuthor,
		EditionCode: "Unknown",
	}

	if info.Title != "" {
		meta.BookTitle = info.Title
	}
	if info.Author != "" {
		meta.Author = info.Author
	}
	if info.Producer != "" {
		meta.EditionCode = info.Producer
	}

	meta.BookTitle, meta.Author = ParseFilename(filename)

	return meta
}

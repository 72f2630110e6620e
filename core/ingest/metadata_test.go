package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/VilyWonca/KAF-BACK/model"
)

func TestStripUUIDPrefix(t *testing.T) {
	t.Run("Strips a valid UUID prefix", func(t *testing.T) {
		stripped := StripUUIDPrefix("3f2504e0-4f89-11d3-9a0c-0305e82c3301-War and Peace.pdf")
		assert.Equal(t, "War and Peace.pdf", stripped)
	})

	t.Run("Leaves invalid UUID prefixes untouched", func(t *testing.T) {
		filename := "not-a-uuid-but-36-characters-long-xx-War and Peace.pdf"
		assert.Equal(t, filename, StripUUIDPrefix(filename))
	})

	t.Run("Leaves short filenames untouched", func(t *testing.T) {
		assert.Equal(t, "Notes.pdf", StripUUIDPrefix("Notes.pdf"))
	})

	t.Run("Requires a hyphen after the UUID", func(t *testing.T) {
		filename := "3f2504e0-4f89-11d3-9a0c-0305e82c3301_War and Peace.pdf"
		assert.Equal(t, filename, StripUUIDPrefix(filename))
	})
}

func TestParseFilename(t *testing.T) {
	t.Run("Parses title and author around the separator", func(t *testing.T) {
		title, author := ParseFilename("War and Peace ... Leo Tolstoy.pdf")
		assert.Equal(t, "War and Peace", title)
		assert.Equal(t, "Leo Tolstoy", author)
	})

	t.Run("Strips a UUID prefix before parsing", func(t *testing.T) {
		title, author := ParseFilename("3f2504e0-4f89-11d3-9a0c-0305e82c3301-War and Peace ... Leo Tolstoy.pdf")
		assert.Equal(t, "War and Peace", title)
		assert.Equal(t, "Leo Tolstoy", author)
	})

	t.Run("Without separator the whole name is the title", func(t *testing.T) {
		title, author := ParseFilename("Notes.pdf")
		assert.Equal(t, "Notes", title)
		assert.Equal(t, model.UnknownAuthor, author)
	})

	t.Run("Trims trailing periods from the author", func(t *testing.T) {
		title, author := ParseFilename("Anna Karenina ... Leo Tolstoy..pdf")
		assert.Equal(t, "Anna Karenina", title)
		assert.Equal(t, "Leo Tolstoy", author)
	})

	t.Run("More than one separator falls back to the full name", func(t *testing.T) {
		title, author := ParseFilename("a ... b ... c.pdf")
		assert.Equal(t, "a ... b ... c", title)
		assert.Equal(t, model.UnknownAuthor, author)
	})

	t.Run("Trims whitespace around title and author", func(t *testing.T) {
		title, author := ParseFilename("  War and Peace  ...  Leo Tolstoy .pdf")
		assert.Equal(t, "War and Peace", title)
		assert.Equal(t, "Leo Tolstoy", author)
	})
}

func TestResolveMetadata(t *testing.T) {
	t.Run("Filename overrides embedded title and author", func(t *testing.T) {
		info := DocumentInfo{Title: "Embedded Title", Author: "Embedded Author", Producer: "Acrobat 9"}
		meta := ResolveMetadata("War and Peace ... Leo Tolstoy.pdf", info)

		assert.Equal(t, "War and Peace", meta.BookTitle)
		assert.Equal(t, "Leo Tolstoy", meta.Author)
		assert.Equal(t, "Acrobat 9", meta.EditionCode)
	})

	t.Run("Empty embedded metadata falls back to unknown", func(t *testing.T) {
		meta := ResolveMetadata("Notes.pdf", DocumentInfo{})

		assert.Equal(t, "Notes", meta.BookTitle)
		assert.Equal(t, model.UnknownAuthor, meta.Author)
		assert.Equal(t, "Unknown", meta.EditionCode)
	})

	t.Run("Producer fills the edition code", func(t *testing.T) {
		meta := ResolveMetadata("Notes.pdf", DocumentInfo{Producer: "LaTeX"})
		assert.Equal(t, "LaTeX", meta.EditionCode)
	})
}

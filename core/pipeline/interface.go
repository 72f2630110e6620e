package pipeline

import (
	"fmt"
	"strings"

	"github.com/VilyWonca/KAF-BACK/core/textproc"
	"github.com/VilyWonca/KAF-BACK/helper"
)

// ChunkFunc is a function that splits cleaned page text into chunk texts.
// Chunks preserve sentence order and never duplicate content.
type ChunkFunc func(text string) ([]string, error)

// EmbedFunc is a function that generates an embedding vector for text.
// Implementations are deterministic for a given model.
type EmbedFunc func(text string) ([]float32, error)

// EmbeddedChunk is a chunk text together with its embedding vector
type EmbeddedChunk struct {
	Text      string
	Embedding []float32
}

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// Process splits text into chunks and embeds each of them.
// An input with no chunkable content yields zero chunks, not an error.
func (p *Pipeline) Process(text string) ([]EmbeddedChunk, error) {
	texts, err := p.Chunker(text)
	if err != nil {
		return nil, helper.NewError("chunk text", err)
	}

	chunks := make([]EmbeddedChunk, 0, len(texts))
	for _, t := range texts {
		embedding, err := p.Embedder(t)
		if err != nil {
			return nil, helper.NewError("embed chunk", err)
		}
		chunks = append(chunks, EmbeddedChunk{Text: t, Embedding: embedding})
	}

	return chunks, nil
}

// NewChunker selects a chunking strategy by name. "semantic" groups
// sentences by embedding similarity, "length" packs text greedily up to
// maxLength characters.
func NewChunker(strategy string, maxLength int, threshold float32, filter textproc.NoiseFilter, embed EmbedFunc) (ChunkFunc, error) {
	switch strings.ToLower(strategy) {
	case "semantic":
		return SemanticChunker(embed, filter, threshold), nil
	case "length", "simple":
		return LengthChunker(maxLength), nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %s", strategy)
	}
}

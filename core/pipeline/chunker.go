package pipeline

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/VilyWonca/KAF-BACK/core/textproc"
	"github.com/VilyWonca/KAF-BACK/helper"
)

// Short-sentence carry-forward bounds: a sentence this short is appended
// to the current chunk without a similarity test, so transitional
// sentences ("However, this changed.") don't open a chunk of their own.
const (
	carryForwardMinLength = 30
	carryForwardMaxLength = 80
	carryForwardMaxWords  = 10
)

// cosineSimilarity calculates the cosine similarity between two embedding vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// SemanticChunker creates a chunker that groups sentences by topical
// continuity. Sentences are segmented and noise-filtered, every survivor
// is embedded, and a chunk boundary opens wherever the cosine similarity
// between two consecutive sentences drops below the threshold.
func SemanticChunker(embed EmbedFunc, filter textproc.NoiseFilter, threshold float32) ChunkFunc {
	return func(text string) ([]string, error) {
		sentences := filter.Filter(textproc.Segment(text))
		if len(sentences) == 0 {
			return nil, nil
		}

		embeddings := make([][]float32, len(sentences))
		for i, sentence := range sentences {
			embedding, err := embed(sentence)
			if err != nil {
				return nil, helper.NewError(fmt.Sprintf("embed sentence %d", i), err)
			}
			embeddings[i] = embedding
		}

		var chunks []string
		current := []string{sentences[0]}

		for i := 1; i < len(sentences); i++ {
			curr := sentences[i]

			if carriesForward(curr) && i+1 < len(sentences) && !filter.IsNoise(sentences[i+1]) {
				current = append(current, curr)
				continue
			}

			if cosineSimilarity(embeddings[i-1], embeddings[i]) < threshold {
				chunks = append(chunks, strings.Join(current, " "))
				current = []string{curr}
			} else {
				current = append(current, curr)
			}
		}

		return append(chunks, strings.Join(current, " ")), nil
	}
}

func carriesForward(sentence string) bool {
	trimmed := utf8.RuneCountInString(strings.TrimSpace(sentence))
	if trimmed < carryForwardMinLength || trimmed > carryForwardMaxLength {
		return false
	}
	return len(strings.Fields(sentence)) <= carryForwardMaxWords
}

// LengthChunker creates a chunker that greedily packs text into chunks of
// at most maxLength characters, preferring to split at the last space
// within the limit. The limit counts characters, and hard splits land on
// rune boundaries. Retained as the cheap fallback for corpora where
// semantic grouping is unavailable or too costly.
func LengthChunker(maxLength int) ChunkFunc {
	return func(text string) ([]string, error) {
		if maxLength <= 0 {
			return nil, fmt.Errorf("max chunk length must be positive")
		}

		var chunks []string
		runes := []rune(strings.TrimSpace(text))

		for len(runes) > maxLength {
			splitIndex := maxLength
			for i := maxLength - 1; i >= 0; i-- {
				if runes[i] == ' ' {
					splitIndex = i
					break
				}
			}
			if chunk := strings.TrimSpace(string(runes[:splitIndex])); chunk != "" {
				chunks = append(chunks, chunk)
			}
			runes = []rune(strings.TrimSpace(string(runes[splitIndex:])))
		}

		if len(runes) > 0 {
			chunks = append(chunks, string(runes))
		}

		return chunks, nil
	}
}

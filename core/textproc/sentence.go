package textproc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// sentence boundaries are marked after terminal punctuation followed by
// whitespace. This is a heuristic, not a sentence parser: abbreviations
// ("Dr. Smith") and decimal numbers followed by a space are mis-split.
var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

const boundaryMarker = "\x1f"

// Segment splits cleaned text into an ordered sequence of sentences.
// Order is preserved; empty fragments are dropped.
func Segment(text string) []string {
	marked := sentenceBoundary.ReplaceAllString(text, "$1"+boundaryMarker)

	var sentences []string
	for _, part := range strings.Split(marked, boundaryMarker) {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// NoiseFilter classifies sentence fragments that are extraction artifacts
// rather than real content. Thresholds are tuned empirically, kept
// configurable per corpus.
type NoiseFilter struct {
	MinLength int // trimmed length below this is noise
	MinWords  int // fewer whitespace-delimited words than this is noise
	DotRun    int // a run of this many consecutive dots is noise

	dotRunPattern *regexp.Regexp
}

// NewNoiseFilter creates a filter with the given thresholds
func NewNoiseFilter(minLength, minWords, dotRun int) NoiseFilter {
	return NoiseFilter{
		MinLength:     minLength,
		MinWords:      minWords,
		DotRun:        dotRun,
		dotRunPattern: regexp.MustCompile(fmt.Sprintf(`\.{%d,}`, dotRun)),
	}
}

// DefaultNoiseFilter returns the thresholds used for book corpora:
// 30 characters, 3 words, runs of 3 dots
func DefaultNoiseFilter() NoiseFilter {
	return NewNoiseFilter(30, 3, 3)
}

// IsNoise reports whether the sentence should be discarded before
// chunking. Length is counted in characters, not bytes, so non-ASCII
// corpora hit the same thresholds.
func (f NoiseFilter) IsNoise(sentence string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(sentence)) < f.MinLength {
		return true
	}
	if len(strings.Fields(sentence)) < f.MinWords {
		return true
	}
	return f.dotRunPattern.MatchString(sentence)
}

// Filter removes noise sentences, preserving the order of the survivors
func (f NoiseFilter) Filter(sentences []string) []string {
	var filtered []string
	for _, s := range sentences {
		if !f.IsNoise(s) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

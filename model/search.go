package model

// SearchMode selects how stored chunks are ranked against a query
type SearchMode string

const (
	SearchModeSimilarity SearchMode = "similarity"
	SearchModeKeyword    SearchMode = "keyword"
	SearchModeHybrid     SearchMode = "hybrid"
)

// SearchConfig represents configuration for a retrieval query
type SearchConfig struct {
	Mode  SearchMode `json:"mode"`
	Limit int        `json:"limit"`
	// Alpha blends vector similarity against keyword rank in hybrid mode.
	// 1.0 is pure vector, 0.0 pure keyword.
	Alpha float64 `json:"alpha"`
	// SimilarityThreshold drops matches below this cosine similarity
	// in similarity mode
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
}

// DefaultSearchConfig returns the defaults for a retrieval mode
func DefaultSearchConfig(mode SearchMode) SearchConfig {
	switch mode {
	case SearchModeKeyword:
		return SearchConfig{Mode: mode, Limit: 6}
	case SearchModeHybrid:
		return SearchConfig{Mode: mode, Limit: 10, Alpha: 0.9}
	default:
		return SearchConfig{Mode: SearchModeSimilarity, Limit: 10, SimilarityThreshold: 0.7}
	}
}

package model

// RetrievedPassage is a ranked excerpt returned by a storage query.
// It is constructed per query and never persisted.
type RetrievedPassage struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// OllamaEmbedder is an HTTP client for the Ollama embeddings endpoint,
// an alternative to the in-process model when the server already runs
// an Ollama instance for chat.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaEmbedderConfig configures the Ollama embeddings client
type OllamaEmbedderConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOllamaEmbedder creates an embeddings client against an Ollama server
func NewOllamaEmbedder(cfg OllamaEmbedderConfig) *OllamaEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OllamaEmbedder{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Embed returns an embedding vector for the given text
func (e *OllamaEmbedder) Embed(text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{
		"model":  e.model,
		"prompt": text,
	})
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Post(e.baseURL+"/api/embeddings", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("no embedding returned")
	}

	return out.Embedding, nil
}

// EmbedFunc adapts the client to the pipeline's EmbedFunc type
func (e *OllamaEmbedder) EmbedFunc() EmbedFunc {
	return e.Embed
}

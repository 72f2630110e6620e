package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Client streams chat completions from an Ollama server
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	log     *slog.Logger
}

// Config configures the chat client. The stream ceiling is the caller's
// responsibility via context deadlines, so the HTTP client itself has no
// request timeout.
type Config struct {
	BaseURL string
	Model   string
}

// NewClient creates a chat client against an Ollama server
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{},
		log:     logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// StreamChat sends the prompt and returns a channel of incremental
// content fragments in arrival order, plus an error channel that yields
// exactly one value once the fragment channel is closed. Malformed
// fragment lines are logged and skipped, they never abort the stream.
func (c *Client) StreamChat(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	fragments := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(fragments)
		errc <- c.stream(ctx, prompt, fragments)
	}()

	return fragments, errc
}

func (c *Client) stream(ctx context.Context, prompt string, fragments chan<- string) error {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat request failed: %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.log.Error("Skipping malformed chat fragment", slog.String("error", err.Error()))
			continue
		}

		if chunk.Message.Content != "" {
			select {
			case fragments <- chunk.Message.Content:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if chunk.Done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read chat stream: %w", err)
	}

	return nil
}

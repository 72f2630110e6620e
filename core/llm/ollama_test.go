package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["stream"])

		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n"))
		}
	}))
}

func collect(t *testing.T, fragments <-chan string, errc <-chan error) ([]string, error) {
	t.Helper()
	var collected []string
	for fragment := range fragments {
		collected = append(collected, fragment)
	}
	return collected, <-errc
}

func TestStreamChat(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("Forwards fragments in arrival order", func(t *testing.T) {
		server := newChatServer(t, []string{
			`{"message":{"content":"Hel"},"done":false}`,
			`{"message":{"content":"lo "},"done":false}`,
			`{"message":{"content":"world"},"done":true}`,
		})
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, Model: "test-model"}, logger)
		fragments, errc := client.StreamChat(context.Background(), "question")

		collected, err := collect(t, fragments, errc)
		assert.NoError(t, err)
		assert.Equal(t, []string{"Hel", "lo ", "world"}, collected)
	})

	t.Run("Skips malformed fragment lines", func(t *testing.T) {
		server := newChatServer(t, []string{
			`{"message":{"content":"first"},"done":false}`,
			`{not valid json`,
			`{"message":{"content":"second"},"done":true}`,
		})
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, Model: "test-model"}, logger)
		fragments, errc := client.StreamChat(context.Background(), "question")

		collected, err := collect(t, fragments, errc)
		assert.NoError(t, err, "Expected a malformed line to be skipped, not to abort the stream")
		assert.Equal(t, []string{"first", "second"}, collected)
	})

	t.Run("Ignores empty lines and empty fragments", func(t *testing.T) {
		server := newChatServer(t, []string{
			``,
			`{"message":{"content":""},"done":false}`,
			`{"message":{"content":"only"},"done":true}`,
		})
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, Model: "test-model"}, logger)
		fragments, errc := client.StreamChat(context.Background(), "question")

		collected, err := collect(t, fragments, errc)
		assert.NoError(t, err)
		assert.Equal(t, []string{"only"}, collected)
	})

	t.Run("Stops at the done marker", func(t *testing.T) {
		server := newChatServer(t, []string{
			`{"message":{"content":"kept"},"done":true}`,
			`{"message":{"content":"dropped"},"done":false}`,
		})
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, Model: "test-model"}, logger)
		fragments, errc := client.StreamChat(context.Background(), "question")

		collected, err := collect(t, fragments, errc)
		assert.NoError(t, err)
		assert.Equal(t, []string{"kept"}, collected)
	})

	t.Run("Non-200 response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, Model: "missing"}, logger)
		fragments, errc := client.StreamChat(context.Background(), "question")

		collected, err := collect(t, fragments, errc)
		assert.Error(t, err)
		assert.Empty(t, collected)
	})

	t.Run("Unreachable server is an error", func(t *testing.T) {
		client := NewClient(Config{BaseURL: "http://localhost:1", Model: "test-model"}, logger)
		fragments, errc := client.StreamChat(context.Background(), "question")

		collected, err := collect(t, fragments, errc)
		assert.Error(t, err)
		assert.Empty(t, collected)
	})

	t.Run("Cancelled context stops the stream", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		server := newChatServer(t, []string{
			`{"message":{"content":"never"},"done":true}`,
		})
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, Model: "test-model"}, logger)
		fragments, errc := client.StreamChat(ctx, "question")

		select {
		case err := <-errc:
			assert.Error(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("expected the stream to end after cancellation")
		}
		for range fragments {
		}
	})
}

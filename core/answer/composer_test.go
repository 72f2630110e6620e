package answer

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VilyWonca/KAF-BACK/core/llm"
	"github.com/VilyWonca/KAF-BACK/model"
)

// recordingEmitter collects emitted events for assertions
type recordingEmitter struct {
	events []Event
}

func (r *recordingEmitter) Emit(event Event) {
	r.events = append(r.events, event)
}

func (r *recordingEmitter) ofType(eventType EventType) []Event {
	var matching []Event
	for _, event := range r.events {
		if event.Type == eventType {
			matching = append(matching, event)
		}
	}
	return matching
}

func newStreamingServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n"))
		}
	}))
}

func testPassages() []*model.RetrievedPassage {
	return []*model.RetrievedPassage{
		{Title: "War and Peace", Author: "Leo Tolstoy", PageNumber: 312, Text: "Pierre watched the fires spread.", Score: 0.91},
		{Title: "Anna Karenina", Author: "Leo Tolstoy", PageNumber: 12, Text: "All happy families are alike.", Score: 0.74},
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Run("Renders passages as attributed excerpt blocks", func(t *testing.T) {
		prompt := BuildPrompt("What did Pierre see?", testPassages())

		assert.Contains(t, prompt, "Author: Leo Tolstoy")
		assert.Contains(t, prompt, `Book title: "War and Peace", page 312`)
		assert.Contains(t, prompt, "Excerpt from this page: Pierre watched the fires spread.")
		assert.Contains(t, prompt, "What did Pierre see?")
	})

	t.Run("Preserves rank order of passages", func(t *testing.T) {
		prompt := BuildPrompt("question", testPassages())

		first := strings.Index(prompt, "War and Peace")
		second := strings.Index(prompt, "Anna Karenina")
		require.Greater(t, first, -1)
		require.Greater(t, second, -1)
		assert.Less(t, first, second, "Expected the highest ranked passage first")
	})

	t.Run("Instructs the model to cite sources", func(t *testing.T) {
		prompt := BuildPrompt("question", testPassages())
		assert.Contains(t, prompt, "Using only these excerpts")
		assert.Contains(t, prompt, "author, the book title and the page")
	})

	t.Run("Empty passages build a no-grounding prompt", func(t *testing.T) {
		prompt := BuildPrompt("What did Pierre see?", nil)

		assert.Contains(t, prompt, NoGroundingMarker)
		assert.Contains(t, prompt, "What did Pierre see?")
		assert.NotContains(t, prompt, "Excerpt from this page", "Expected no excerpt block without passages")
	})
}

func TestComposerAnswer(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("Streams partials in order and a final answer", func(t *testing.T) {
		server := newStreamingServer(t, []string{
			`{"message":{"content":"Hel"},"done":false}`,
			`{"message":{"content":"lo "},"done":false}`,
			`{"message":{"content":"world"},"done":true}`,
		})
		defer server.Close()

		client := llm.NewClient(llm.Config{BaseURL: server.URL, Model: "test-model"}, logger)
		composer := NewComposer(client, time.Minute, logger)
		emitter := &recordingEmitter{}

		text, err := composer.Answer(context.Background(), "question", testPassages(), emitter)
		require.NoError(t, err)
		assert.Equal(t, "Hello world", text)

		partials := emitter.ofType(EventTypePartialAnswer)
		require.Len(t, partials, 3, "Expected one partial event per fragment")
		assert.Equal(t, "Hel", partials[0].Content)
		assert.Equal(t, "lo ", partials[1].Content)
		assert.Equal(t, "world", partials[2].Content)

		finals := emitter.ofType(EventTypeFinalAnswer)
		require.Len(t, finals, 1, "Expected exactly one final event")
		assert.Equal(t, "Hello world", finals[0].Content)

		assert.Equal(t, EventTypeFinalAnswer, emitter.events[len(emitter.events)-1].Type,
			"Expected the final event last")
		assert.Empty(t, emitter.ofType(EventTypeError))
	})

	t.Run("Generation failure emits a single error event", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := llm.NewClient(llm.Config{BaseURL: server.URL, Model: "test-model"}, logger)
		composer := NewComposer(client, time.Minute, logger)
		emitter := &recordingEmitter{}

		_, err := composer.Answer(context.Background(), "question", testPassages(), emitter)
		assert.Error(t, err)

		assert.Len(t, emitter.ofType(EventTypeError), 1, "Expected exactly one error event")
		assert.Empty(t, emitter.ofType(EventTypeFinalAnswer), "Expected no final answer after a failure")
	})

	t.Run("Empty passages still produce an answer", func(t *testing.T) {
		server := newStreamingServer(t, []string{
			`{"message":{"content":"I found no sources."},"done":true}`,
		})
		defer server.Close()

		client := llm.NewClient(llm.Config{BaseURL: server.URL, Model: "test-model"}, logger)
		composer := NewComposer(client, time.Minute, logger)
		emitter := &recordingEmitter{}

		text, err := composer.Answer(context.Background(), "question", nil, emitter)
		require.NoError(t, err)
		assert.Equal(t, "I found no sources.", text)
	})

	t.Run("Stream past the time ceiling emits an error event", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = w.Write([]byte(`{"message":{"content":"Pierre "},"done":false}` + "\n"))
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			<-r.Context().Done()
		}))
		defer server.Close()

		client := llm.NewClient(llm.Config{BaseURL: server.URL, Model: "test-model"}, logger)
		composer := NewComposer(client, 200*time.Millisecond, logger)
		emitter := &recordingEmitter{}

		_, err := composer.Answer(context.Background(), "question", testPassages(), emitter)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		require.Len(t, emitter.ofType(EventTypeError), 1,
			"Expected a single error event when the stream ran out of time")
		assert.Empty(t, emitter.ofType(EventTypeFinalAnswer), "Expected no final answer after a timeout")
	})

	t.Run("Cancelled context returns without an error event", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		server := newStreamingServer(t, []string{
			`{"message":{"content":"never"},"done":true}`,
		})
		defer server.Close()

		client := llm.NewClient(llm.Config{BaseURL: server.URL, Model: "test-model"}, logger)
		composer := NewComposer(client, time.Minute, logger)
		emitter := &recordingEmitter{}

		_, err := composer.Answer(ctx, "question", testPassages(), emitter)
		assert.Error(t, err)
		assert.Empty(t, emitter.ofType(EventTypeError),
			"Expected a disconnect to end the stream silently")
	})
}

func TestEventConstructors(t *testing.T) {
	t.Run("Event types and payloads", func(t *testing.T) {
		assert.Equal(t, EventTypeLoading, NewLoadingEvent("searching").Type)
		assert.Equal(t, "searching", NewLoadingEvent("searching").Content)

		assert.Equal(t, EventTypePartialAnswer, NewPartialAnswerEvent("frag").Type)
		assert.Equal(t, EventTypeFinalAnswer, NewFinalAnswerEvent("full").Type)
		assert.Equal(t, EventTypeSystem, NewSystemEvent("connected").Type)

		errorEvent := NewErrorEvent("boom")
		assert.Equal(t, EventTypeError, errorEvent.Type)
		assert.Equal(t, "boom", errorEvent.Error)
		assert.Empty(t, errorEvent.Content)
	})

	t.Run("Timestamps are set", func(t *testing.T) {
		event := NewLoadingEvent("working")
		assert.WithinDuration(t, time.Now(), event.Timestamp, time.Second)
	})
}

package answer

import "time"

// EventType represents the type of chat event sent to a session
type EventType string

const (
	EventTypeLoading       EventType = "loading"
	EventTypePartialAnswer EventType = "partial_answer"
	EventTypeFinalAnswer   EventType = "final_answer"
	EventTypeError         EventType = "error"
	EventTypeSystem        EventType = "system"
)

// Event is one message on the outbound stream of a chat session
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Emitter is the outbound event stream of one chat session. The answer
// composer writes to it; the transport layer drains it.
type Emitter interface {
	Emit(event Event)
}

// NewLoadingEvent creates a progress event shown while retrieval or
// generation is still running
func NewLoadingEvent(content string) Event {
	return Event{Type: EventTypeLoading, Timestamp: time.Now(), Content: content}
}

// NewPartialAnswerEvent creates an event carrying one incremental answer fragment
func NewPartialAnswerEvent(content string) Event {
	return Event{Type: EventTypePartialAnswer, Timestamp: time.Now(), Content: content}
}

// NewFinalAnswerEvent creates the event carrying the full assembled answer
func NewFinalAnswerEvent(content string) Event {
	return Event{Type: EventTypeFinalAnswer, Timestamp: time.Now(), Content: content}
}

// NewErrorEvent creates a user-facing error event
func NewErrorEvent(message string) Event {
	return Event{Type: EventTypeError, Timestamp: time.Now(), Error: message}
}

// NewSystemEvent creates an informational event, e.g. on connect
func NewSystemEvent(content string) Event {
	return Event{Type: EventTypeSystem, Timestamp: time.Now(), Content: content}
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/VilyWonca/KAF-BACK/core/answer"
	"github.com/VilyWonca/KAF-BACK/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// chatMessage is one inbound question on the chat channel. SearchType
// selects the retrieval mode: "1" hybrid, "2" similarity, "3" keyword.
// Any other value is rejected with an error event.
type chatMessage struct {
	Text       string `json:"text"`
	SearchType string `json:"searchType"`
}

// chatSession serializes event writes onto one websocket connection.
// A failed write cancels the in-flight answer so forwarding stops.
type chatSession struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	mu     sync.Mutex
	log    *slog.Logger
}

func (s *chatSession) Emit(event answer.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.WriteJSON(event); err != nil {
		s.log.Warn("Writing chat event failed, cancelling answer",
			slog.String("type", string(event.Type)), slog.String("error", err.Error()))
		s.cancel()
	}
}

// handleChat upgrades the connection and answers questions one at a
// time. Questions are processed in arrival order; a disconnect during
// streaming stops the in-flight answer.
func (s *Server) handleChat(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("Websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session := &chatSession{conn: conn, cancel: cancel, log: s.log}
	session.Emit(answer.NewSystemEvent("connected"))

	for {
		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Chat connection closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}

		if msg.Text == "" {
			session.Emit(answer.NewErrorEvent("empty question"))
			continue
		}

		s.answerQuestion(ctx, msg, session)
	}
}

func (s *Server) answerQuestion(ctx context.Context, msg chatMessage, session *chatSession) {
	if s.documents == nil {
		session.Emit(answer.NewErrorEvent("document storage is unavailable"))
		return
	}

	mode, err := searchMode(msg.SearchType)
	if err != nil {
		s.log.Warn("Rejecting chat question", slog.String("error", err.Error()))
		session.Emit(answer.NewErrorEvent("unknown search type"))
		return
	}

	session.Emit(answer.NewLoadingEvent("searching sources"))

	searchConfig := model.DefaultSearchConfig(mode)
	if searchConfig.Mode == model.SearchModeHybrid {
		searchConfig.Alpha = s.cfg.HybridAlpha
	}

	var embedding []float32
	if searchConfig.Mode != model.SearchModeKeyword {
		var err error
		embedding, err = s.embed(msg.Text)
		if err != nil {
			s.log.Error("Embedding question failed", slog.String("error", err.Error()))
			session.Emit(answer.NewErrorEvent("processing the question failed"))
			return
		}
	}

	passages, err := s.documents.SearchByText(ctx, msg.Text, embedding, searchConfig)
	if err != nil {
		s.log.Error("Retrieval failed", slog.String("error", err.Error()))
		session.Emit(answer.NewErrorEvent("searching sources failed"))
		return
	}

	session.Emit(answer.NewLoadingEvent("composing answer"))

	if _, err := s.composer.Answer(ctx, msg.Text, passages, session); err != nil {
		s.log.Error("Answering failed", slog.String("error", err.Error()))
	}
}

func searchMode(searchType string) (model.SearchMode, error) {
	switch searchType {
	case "1":
		return model.SearchModeHybrid, nil
	case "2":
		return model.SearchModeSimilarity, nil
	case "3":
		return model.SearchModeKeyword, nil
	default:
		return "", fmt.Errorf("unknown search type %q", searchType)
	}
}

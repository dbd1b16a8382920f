package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/api"
	"github.com/linesmerrill/court-session-api/assistant"
	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

// Answerer answers a question about a session
type Answerer interface {
	Answer(ctx context.Context, sessionID, question string) (string, error)
}

// Chat exported for testing purposes
type Chat struct {
	Assistant Answerer
	Metrics   *api.MetricsCollector
}

// ChatHandler answers one question about a session
func (c Chat) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError("message is required", w, err)
		return
	}
	answer, err := c.Assistant.Answer(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError("chat failed", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ChatResponse{Response: answer})
}

// ChatSocketHandler answers each question frame on a websocket. A failed
// question is answered with a warning and the socket stays open.
func (c Chat) ChatSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("failed to upgrade chat socket", "error", err)
		return
	}
	defer trackSocket(c.Metrics)()
	conn.SetReadLimit(maxFrameSize)

	peer := newSocketPeer("chat", conn)
	defer peer.wait()
	defer peer.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			zap.S().Debugw("chat socket closed", "error", err)
			return
		}
		var q models.ChatQuestion
		if err := json.Unmarshal(data, &q); err != nil {
			send(peer, models.NewWarning("Questions must be JSON objects with a session_id and a question."))
			continue
		}
		answer, err := c.Assistant.Answer(r.Context(), q.SessionID, q.Question)
		if err != nil {
			zap.S().Infow("chat question failed", "meeting_id", q.SessionID, "error", err)
			send(peer, models.NewWarning(chatWarning(err)))
			continue
		}
		send(peer, models.NewAnswer(q.Question, answer))
	}
}

func chatWarning(err error) string {
	switch {
	case errors.Is(err, registry.ErrValidation):
		return "A question is required."
	case errors.Is(err, registry.ErrNotFound):
		return "Meeting not found."
	case errors.Is(err, assistant.ErrUnavailable):
		return "The assistant is unavailable right now. Please try again."
	default:
		return "The question could not be answered."
	}
}

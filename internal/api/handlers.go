package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/neurobot-client/internal/chat"
	"github.com/nerrad567/neurobot-client/internal/emotion"
	"github.com/nerrad567/neurobot-client/internal/session"
)

// maxTranscriptLimit caps ?limit on /transcript.
const maxTranscriptLimit = 1000

// handleStatus returns the backend channel state and session counters.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Status(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleWindow returns the rolling sample window and its statistics.
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Window(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// emotionResponse is the /emotion body.
type emotionResponse struct {
	emotion.Display
	Received bool `json:"received"`
}

// handleEmotion returns the current emotion display.
func (s *Server) handleEmotion(w http.ResponseWriter, r *http.Request) {
	d, ok, err := s.session.Emotion(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emotionResponse{Display: d, Received: ok})
}

// handleTranscript returns recent transcript entries, oldest first.
// ?limit=N selects the last N entries.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = min(n, maxTranscriptLimit)
	}

	entries, err := s.session.Transcript(r.Context(), limit)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// chatRequest is the POST /chat body.
type chatRequest struct {
	Message string `json:"message"`
}

// handleChat submits a chat message. The entry is recorded even when the
// backend channel is down; "sent" reports whether it was transmitted.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	res, err := s.session.SubmitChat(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeValidationError(w, "message is required")
		return
	case isSessionUnavailable(err):
		s.writeSessionError(w, err)
		return
	case err != nil:
		// The entry was recorded; only the transmission failed.
		s.logger.Warn("chat submission not transmitted", "error", err)
	}

	writeJSON(w, http.StatusAccepted, res)
}

// handleChart renders the sample window as a PNG line chart.
func (s *Server) handleChart(w http.ResponseWriter, _ *http.Request) {
	if s.chart == nil {
		writeNotFound(w, "chart rendering is disabled")
		return
	}

	var buf bytes.Buffer
	if err := s.chart.Render(&buf); err != nil {
		s.logger.Error("chart render failed", "error", err)
		writeInternalError(w, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(buf.Bytes())
}

// isSessionUnavailable reports errors meaning the session could not answer.
func isSessionUnavailable(err error) bool {
	return errors.Is(err, session.ErrStopped) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// writeSessionError maps a session read failure to a response.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if isSessionUnavailable(err) {
		writeServiceUnavailable(w, "session is not running")
		return
	}
	s.logger.Error("session request failed", "error", err)
	writeInternalError(w, "session request failed")
}

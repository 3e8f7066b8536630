package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/csmentor/csmentor/internal/chat"
)

type askPayload struct {
	Question string `json:"question"`
}

// handleAsk runs one chat turn against the active session. A backend
// failure still answers 200: the turn completed, and its outcome is the
// errored bot message in the body.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := s.controller.Submit(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyQuestion):
			s.writeError(w, "Question is required", http.StatusBadRequest)
		case errors.Is(err, chat.ErrTurnInFlight):
			s.writeError(w, "A question is already being answered", http.StatusConflict)
		case errors.Is(err, chat.ErrNoActiveSession):
			s.writeError(w, "No active session", http.StatusNotFound)
		default:
			s.writeError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.writeJSON(w, reply)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/csmentor/csmentor/internal/session"
)

type sessionRequest struct {
	Name string `json:"name"`
}

type settingsPayload struct {
	AutoSave bool `json:"autoSave"`
}

// repositoryErrorStatus maps repository errors to HTTP status codes.
func repositoryErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.repo.Sessions()
	s.writeJSON(w, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (s *Server) handleListDeletedSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.repo.Deleted()
	s.writeJSON(w, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.repo.Create(req.Name)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	found, ok := s.repo.Get(id)
	if !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, found)
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.repo.Rename(id, req.Name); err != nil {
		s.writeError(w, err.Error(), repositoryErrorStatus(err))
		return
	}

	renamed, ok := s.repo.Get(id)
	if !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, renamed)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.repo.SoftDelete(id); err != nil {
		s.writeError(w, err.Error(), repositoryErrorStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.repo.Restore(id); err != nil {
		s.writeError(w, err.Error(), repositoryErrorStatus(err))
		return
	}

	restored, ok := s.repo.Get(id)
	if !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, restored)
}

func (s *Server) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.repo.SetActive(id); err != nil {
		s.writeError(w, err.Error(), repositoryErrorStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	found, ok := s.repo.Get(id)
	if !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"messages": found.Messages,
		"total":    len(found.Messages),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, settingsPayload{AutoSave: s.repo.AutoSave()})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.repo.SetAutoSave(req.AutoSave); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, settingsPayload{AutoSave: s.repo.AutoSave()})
}

// handleClearHistory wipes both collections. The confirmation step
// lives with the caller, not here.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.ClearAll(); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.SaveSnapshot(); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrentNotification(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	current, ok := s.notifier.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, current)
}

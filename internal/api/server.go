// Package api exposes the session repository and chat controller over
// HTTP so UI layers can stay purely presentational.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/csmentor/csmentor/internal/backend"
	"github.com/csmentor/csmentor/internal/chat"
	"github.com/csmentor/csmentor/internal/events"
	"github.com/csmentor/csmentor/internal/notifications"
	"github.com/csmentor/csmentor/internal/session"
)

// Server hosts the REST and websocket surface.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader

	repo       *session.Repository
	controller *chat.Controller
	notifier   *notifications.Notifier
	broker     *events.Broker
	qa         *backend.Client
}

// NewServer wires the HTTP surface over the given core components.
func NewServer(addr string, repo *session.Repository, controller *chat.Controller, notifier *notifications.Notifier, broker *events.Broker, qa *backend.Client) *Server {
	s := &Server{
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		repo:       repo,
		controller: controller,
		notifier:   notifier,
		broker:     broker,
		qa:         qa,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions/deleted", s.handleListDeletedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleRenameSession).Methods("PATCH")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/restore", s.handleRestoreSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/activate", s.handleActivateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/messages", s.handleGetMessages).Methods("GET")

	api.HandleFunc("/ask", s.handleAsk).Methods("POST")

	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods("PUT")

	api.HandleFunc("/history", s.handleClearHistory).Methods("DELETE")
	api.HandleFunc("/history/save", s.handleSaveHistory).Methods("POST")

	api.HandleFunc("/notifications/current", s.handleCurrentNotification).Methods("GET")
}

// Handler exposes the router; tests drive it through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("API server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleHealth reports the server's own health plus the backend's
// reachability when a backend client is configured.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "healthy"}

	if s.qa != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.qa.Health(ctx); err != nil {
			status["backend"] = "unreachable"
		} else {
			status["backend"] = "healthy"
		}
	}

	s.writeJSON(w, status)
}

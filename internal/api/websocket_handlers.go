package api

import (
	"log/slog"
	"net/http"
)

// handleWebSocket upgrades the connection and streams broker events
// until the client goes away. The UI uses this to mirror repository and
// turn state without polling.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		s.writeError(w, "Event stream not available", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	eventCh := s.broker.Subscribe(r.Context())
	for event := range eventCh {
		if err := conn.WriteJSON(event); err != nil {
			slog.Debug("WebSocket client disconnected", "error", err)
			return
		}
	}
}

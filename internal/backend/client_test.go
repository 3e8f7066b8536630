package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAskSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ask", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "What is a stack?", req["question"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "success",
			"message": "Answer found",
			"data": map[string]interface{}{
				"answer":     "A LIFO structure",
				"confidence": 0.95,
				"source":     "cs-notes",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	answer, err := client.Ask(context.Background(), "What is a stack?")
	require.NoError(t, err)
	require.Equal(t, "A LIFO structure", answer.Text)
	require.InDelta(t, 0.95, answer.Confidence, 1e-9)
	require.Equal(t, "cs-notes", answer.Source)
}

func TestAskLowConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "low_confidence",
			"message": "Please rephrase your question.",
			"data": map[string]interface{}{
				"answer":     "maybe",
				"confidence": 0.1,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "hmm")
	require.ErrorIs(t, err, ErrLowConfidence)

	var lowConf *LowConfidenceError
	require.ErrorAs(t, err, &lowConf)
	require.Equal(t, "Please rephrase your question.", lowConf.Message)
}

func TestAskServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "anything")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrLowConfidence)
}

func TestAskTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "anything")
	require.Error(t, err)
}

func TestAskBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "anything")
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		if !healthy {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.Health(context.Background()))

	healthy = false
	require.Error(t, client.Health(context.Background()))
}

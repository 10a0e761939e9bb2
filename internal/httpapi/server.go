package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ndrandal/tradesignal-core/internal/queuestore"
	"github.com/ndrandal/tradesignal-core/internal/repository"
)

// Server provides the client polling surface and the ops event stream.
// Both endpoints are stateless; all shared state lives in the
// repository and the queue store (spec §4.5 Concurrency).
type Server struct {
	Repo  *repository.Store
	Queue *queuestore.Store
	Log   *slog.Logger

	hub     *opsHub
	startAt time.Time
}

// NewServer creates an httpapi Server.
func NewServer(repo *repository.Store, queue *queuestore.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Repo:    repo,
		Queue:   queue,
		Log:     logger,
		hub:     newOpsHub(),
		startAt: time.Now(),
	}
}

// Register attaches all routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /client/init", s.handleClientInit)
	mux.HandleFunc("POST /poll", s.handlePoll)
	mux.HandleFunc("GET /ops/stream", s.handleOpsStream)
	mux.HandleFunc("GET /ops/stats", s.handleOpsStats)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeStrict decodes a JSON body, rejecting unknown fields (spec §6
// "Unknown fields are rejected").
func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOpsStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":        time.Since(s.startAt).Truncate(time.Second).String(),
		"ops_listeners": s.hub.ClientCount(),
	})
}

package optd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hydronet/optinet/pkg/config"
	"github.com/hydronet/optinet/pkg/logger"
)

// maxConfigBytes bounds submitted configuration bodies.
const maxConfigBytes = 1 << 20

// Server is the HTTP surface of the optimization daemon.
type Server struct {
	executor *Executor
	runs     *RunStore
	logger   *slog.Logger
}

// NewServer creates a server over an executor and its run store.
func NewServer(executor *Executor, runs *RunStore) *Server {
	return &Server{
		executor: executor,
		runs:     runs,
		logger:   logger.Default,
	}
}

// SetLogger sets the server's logger
func (s *Server) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Handler returns the daemon's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/experiments", s.handleSubmit)
	mux.HandleFunc("GET /v1/experiments", s.handleList)
	mux.HandleFunc("GET /v1/experiments/{id}", s.handleGet)
	mux.HandleFunc("POST /v1/experiments/{id}/cancel", s.handleCancel)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmit accepts a YAML experiment configuration and starts it
// in the background.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	cfg, err := config.ParseYAML(body)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	run := s.executor.Submit(cfg)
	s.logger.Info("run submitted", "run", run.ID)
	writeJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.runs.List())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.executor.Cancel(id); err != nil {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.logger.Info("run cancelled", "run", id)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "cancelling"})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

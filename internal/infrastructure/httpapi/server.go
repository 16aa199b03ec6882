// Package httpapi exposes the status/admin HTTP surface: loop state and
// counters, runtime settings, manual check triggering, and the check log.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
	"UploadWatcher/internal/usecase"
)

// Server bundles the HTTP handlers over the controller and the check log.
type Server struct {
	controller *usecase.Controller
	runner     *usecase.CheckRunner
	checks     ports.CheckLog
	logger     *slog.Logger
}

// NewServer wires the API dependencies.
func NewServer(controller *usecase.Controller, runner *usecase.CheckRunner, checks ports.CheckLog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		controller: controller,
		runner:     runner,
		checks:     checks,
		logger:     logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Post("/check", s.handleTriggerCheck)
		r.Get("/checks", s.handleRecentChecks)
	})

	return r
}

type statusResponse struct {
	State    string          `json:"state"`
	Settings domain.Settings `json:"settings"`
	Stats    usecase.Stats   `json:"stats"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, settings := s.controller.Status()
	s.writeJSON(w, http.StatusOK, statusResponse{
		State:    string(state),
		Settings: settings,
		Stats:    s.runner.Stats(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_, settings := s.controller.Status()
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid settings payload", http.StatusBadRequest)
		return
	}

	if err := s.controller.Apply(r.Context(), settings); err != nil {
		s.logger.Error("apply settings", "error", err)
		http.Error(w, "apply settings failed", http.StatusInternalServerError)
		return
	}

	_, applied := s.controller.Status()
	s.writeJSON(w, http.StatusOK, applied)
}

func (s *Server) handleTriggerCheck(w http.ResponseWriter, r *http.Request) {
	result, err := s.controller.TriggerCheck(r.Context())
	if err != nil {
		// The record still carries the failure details.
		s.writeJSON(w, http.StatusBadGateway, result.Record)
		return
	}
	s.writeJSON(w, http.StatusOK, result.Record)
}

func (s *Server) handleRecentChecks(w http.ResponseWriter, r *http.Request) {
	if s.checks == nil {
		s.writeJSON(w, http.StatusOK, []domain.CheckRecord{})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.checks.RecentChecks(r.Context(), limit)
	if err != nil {
		s.logger.Error("load check log", "error", err)
		http.Error(w, "load check log failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.CheckRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

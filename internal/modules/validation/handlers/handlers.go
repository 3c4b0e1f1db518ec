// Package handlers exposes the validation module over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/modules/runlog"
	"github.com/courtsight/courtsight/internal/modules/validation"
)

// Handler provides HTTP handlers for validation endpoints
type Handler struct {
	service *validation.Service
	runs    *runlog.Repository
	log     zerolog.Logger
}

// NewHandler creates a new validation handler
func NewHandler(service *validation.Service, runs *runlog.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		runs:    runs,
		log:     log.With().Str("handler", "validation").Logger(),
	}
}

// RegisterRoutes registers all validation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/validation", func(r chi.Router) {
		r.Post("/run", h.HandleRun)
		r.Get("/runs", h.HandleRuns)
	})
}

// HandleRun triggers a validation run over completed games.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ValidateCompleted(r.Context(), time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Msg("Validation run failed")
		writeError(w, http.StatusInternalServerError, "validation run failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// HandleRuns returns recent validation run log entries.
func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.runs.Recent(runlog.KindValidation, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load validation runs")
		writeError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}
	if entries == nil {
		entries = []runlog.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  entries,
		"count": len(entries),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

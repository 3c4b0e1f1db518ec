// Package handlers exposes the tuning module over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/modules/runlog"
	"github.com/courtsight/courtsight/internal/modules/tuning"
)

// Handler provides HTTP handlers for tuning endpoints
type Handler struct {
	service *tuning.Service
	runs    *runlog.Repository
	log     zerolog.Logger
}

// NewHandler creates a new tuning handler
func NewHandler(service *tuning.Service, runs *runlog.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		runs:    runs,
		log:     log.With().Str("handler", "tuning").Logger(),
	}
}

// RegisterRoutes registers all tuning routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tuning", func(r chi.Router) {
		r.Post("/run", h.HandleRun)
		r.Get("/runs", h.HandleRuns)
	})
}

// HandleRun triggers a tuning run. The resulting weight set is stored as a
// proposal; adopting it is a separate call on the weights endpoints.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Tune(r.Context(), time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Msg("Tuning run failed")
		writeError(w, http.StatusInternalServerError, "tuning run failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandleRuns returns recent tuning run log entries.
func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.runs.Recent(runlog.KindTuning, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load tuning runs")
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

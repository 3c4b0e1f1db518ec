// Package handlers exposes weight set management over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/modules/weights"
)

// Handler provides HTTP handlers for weight set endpoints
type Handler struct {
	repo *weights.Repository
	log  zerolog.Logger
}

// NewHandler creates a new weights handler
func NewHandler(repo *weights.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "weights").Logger(),
	}
}

// RegisterRoutes registers all weight set routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/weights", func(r chi.Router) {
		r.Get("/active", h.HandleActive)
		r.Get("/history", h.HandleHistory)
		r.Get("/{version}", h.HandleGet)
		r.Post("/propose", h.HandlePropose)
		r.Post("/{version}/adopt", h.HandleAdopt)
	})
}

// HandleActive returns the currently adopted weight set.
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ws, err := h.repo.Active()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load active weights")
		writeError(w, http.StatusInternalServerError, "failed to load active weights")
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// HandleHistory returns stored weight sets, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sets, err := h.repo.History(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load weight history")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if sets == nil {
		sets = []weights.WeightSet{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"weight_sets": sets,
		"count":       len(sets),
	})
}

// HandleGet returns one weight set version.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version")
		return
	}

	ws, err := h.repo.GetVersion(version)
	if err != nil {
		h.log.Error().Err(err).Int("version", version).Msg("Failed to load weight set")
		writeError(w, http.StatusInternalServerError, "failed to load weight set")
		return
	}
	if ws == nil {
		writeError(w, http.StatusNotFound, "weight set not found")
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// ProposeRequest is the body for manual weight proposals.
type ProposeRequest struct {
	Weights map[weights.Factor]float64 `json:"weights"`
	Notes   string                     `json:"notes"`
}

// HandlePropose stores a manually supplied weight set as a proposal. The set
// must satisfy the weight invariants; invalid sets are rejected.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	version, err := h.repo.Propose(weights.WeightSet{
		Weights: req.Weights,
		Source:  "manual",
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"version": version,
		"status":  weights.StatusProposed,
	})
}

// HandleAdopt activates a proposed weight set version.
func (h *Handler) HandleAdopt(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version")
		return
	}

	if err := h.repo.Adopt(version); err != nil {
		h.log.Error().Err(err).Int("version", version).Msg("Failed to adopt weight set")
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": version,
		"status":  weights.StatusActive,
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

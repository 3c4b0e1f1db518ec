// Package handlers exposes the prediction module over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/modules/prediction"
)

// Handler provides HTTP handlers for prediction endpoints
type Handler struct {
	service *prediction.Service
	repo    *prediction.Repository
	log     zerolog.Logger
}

// NewHandler creates a new prediction handler
func NewHandler(service *prediction.Service, repo *prediction.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "predictions").Logger(),
	}
}

// RegisterRoutes registers all prediction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/predictions", func(r chi.Router) {
		r.Get("/recent", h.HandleRecent)
		r.Get("/stats", h.HandleStats)
		r.Get("/game/{gameID}", h.HandleForGame)
		r.Get("/{uuid}", h.HandleGet)
		r.Post("/generate", h.HandleGenerate)
	})
}

// HandleRecent returns the newest predictions.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.repo.Recent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recent predictions")
		writeError(w, http.StatusInternalServerError, "failed to load predictions")
		return
	}
	if records == nil {
		records = []*prediction.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": records,
		"count":       len(records),
	})
}

// HandleStats returns the aggregate accuracy summary.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute stats")
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleForGame returns the newest prediction for one game.
func (h *Handler) HandleForGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	record, err := h.repo.LatestForGame(gameID)
	if err != nil {
		h.log.Error().Err(err).Str("game_id", gameID).Msg("Failed to load prediction")
		writeError(w, http.StatusInternalServerError, "failed to load prediction")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no prediction for game")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// HandleGet returns one prediction by UUID.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	record, err := h.repo.GetByUUID(id)
	if err != nil {
		h.log.Error().Err(err).Str("uuid", id).Msg("Failed to load prediction")
		writeError(w, http.StatusInternalServerError, "failed to load prediction")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "prediction not found")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// HandleGenerate triggers a generation run over upcoming scheduled games.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GenerateUpcoming(r.Context(), time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Msg("Generation run failed")
		writeError(w, http.StatusInternalServerError, "generation run failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package handlers exposes league data ingestion and lookups over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/league"
)

// Handler provides HTTP handlers for league endpoints
type Handler struct {
	games    *league.GameRepository
	teams    *league.TeamRepository
	players  *league.PlayerRepository
	injuries *league.InjuryRepository
	log      zerolog.Logger
}

// NewHandler creates a new league handler
func NewHandler(games *league.GameRepository, teams *league.TeamRepository, players *league.PlayerRepository, injuries *league.InjuryRepository, log zerolog.Logger) *Handler {
	return &Handler{
		games:    games,
		teams:    teams,
		players:  players,
		injuries: injuries,
		log:      log.With().Str("handler", "league").Logger(),
	}
}

// RegisterRoutes registers all league routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/league", func(r chi.Router) {
		r.Get("/teams", h.HandleTeams)
		r.Post("/teams", h.HandleCreateTeam)
		r.Post("/players", h.HandleCreatePlayer)
		r.Get("/games/upcoming", h.HandleUpcomingGames)
		r.Post("/games", h.HandleCreateGame)
		r.Post("/games/{gameID}/result", h.HandleGameResult)
		r.Post("/injuries", h.HandleCreateInjury)
	})
}

// HandleTeams returns all teams.
func (h *Handler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load teams")
		writeError(w, http.StatusInternalServerError, "failed to load teams")
		return
	}
	if teams == nil {
		teams = []domain.Team{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	})
}

// HandleCreateTeam ingests one team record.
func (h *Handler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var team domain.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if team.ID == "" || team.Name == "" {
		writeError(w, http.StatusBadRequest, "team id and name are required")
		return
	}

	if err := h.teams.Insert(team); err != nil {
		h.log.Error().Err(err).Str("team_id", team.ID).Msg("Failed to insert team")
		writeError(w, http.StatusInternalServerError, "failed to store team")
		return
	}

	writeJSON(w, http.StatusCreated, team)
}

// HandleCreatePlayer ingests one player record.
func (h *Handler) HandleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var player domain.Player
	if err := json.NewDecoder(r.Body).Decode(&player); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if player.ID == "" || player.TeamID == "" {
		writeError(w, http.StatusBadRequest, "player id and team_id are required")
		return
	}

	if err := h.players.Insert(player); err != nil {
		h.log.Error().Err(err).Str("player_id", player.ID).Msg("Failed to insert player")
		writeError(w, http.StatusInternalServerError, "failed to store player")
		return
	}

	writeJSON(w, http.StatusCreated, player)
}

// HandleUpcomingGames returns games scheduled in the next 48 hours.
func (h *Handler) HandleUpcomingGames(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	games, err := h.games.ScheduledBetween(now, now.Add(48*time.Hour))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load upcoming games")
		writeError(w, http.StatusInternalServerError, "failed to load games")
		return
	}
	if games == nil {
		games = []domain.Game{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

// HandleCreateGame ingests one scheduled game.
func (h *Handler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	var game domain.Game
	if err := json.NewDecoder(r.Body).Decode(&game); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if game.ID == "" || game.HomeTeamID == "" || game.AwayTeamID == "" {
		writeError(w, http.StatusBadRequest, "game id, home_team_id and away_team_id are required")
		return
	}
	if game.Status == "" {
		game.Status = domain.GameStatusScheduled
	}

	if err := h.games.Insert(game); err != nil {
		h.log.Error().Err(err).Str("game_id", game.ID).Msg("Failed to insert game")
		writeError(w, http.StatusInternalServerError, "failed to store game")
		return
	}

	writeJSON(w, http.StatusCreated, game)
}

// ResultRequest is the body for posting a final score.
type ResultRequest struct {
	HomeScore  int        `json:"home_score"`
	AwayScore  int        `json:"away_score"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// HandleGameResult applies a final score to a game.
func (h *Handler) HandleGameResult(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	var req ResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HomeScore < 0 || req.AwayScore < 0 {
		writeError(w, http.StatusBadRequest, "scores must be non-negative")
		return
	}

	finishedAt := time.Now().UTC()
	if req.FinishedAt != nil {
		finishedAt = req.FinishedAt.UTC()
	}

	if err := h.games.ApplyResult(gameID, req.HomeScore, req.AwayScore, finishedAt); err != nil {
		h.log.Error().Err(err).Str("game_id", gameID).Msg("Failed to apply result")
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":    gameID,
		"home_score": req.HomeScore,
		"away_score": req.AwayScore,
	})
}

// HandleCreateInjury ingests one injury report.
func (h *Handler) HandleCreateInjury(w http.ResponseWriter, r *http.Request) {
	var injury domain.Injury
	if err := json.NewDecoder(r.Body).Decode(&injury); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if injury.ID == "" || injury.PlayerID == "" || injury.TeamID == "" {
		writeError(w, http.StatusBadRequest, "injury id, player_id and team_id are required")
		return
	}

	if err := h.injuries.Insert(injury); err != nil {
		h.log.Error().Err(err).Str("injury_id", injury.ID).Msg("Failed to insert injury")
		writeError(w, http.StatusInternalServerError, "failed to store injury")
		return
	}

	writeJSON(w, http.StatusCreated, injury)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

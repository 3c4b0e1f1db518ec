// Package domain provides core domain models and types.
package domain

import "time"

// Sport identifies the sport a game belongs to. Each sport carries its own
// scoring baseline and variance constants in the prediction profile.
type Sport string

const (
	SportNBA Sport = "nba"
	SportNFL Sport = "nfl"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusFinal      GameStatus = "final"
	GameStatusCancelled  GameStatus = "cancelled"
	GameStatusPostponed  GameStatus = "postponed"
)

// IsTerminal reports whether a game has reached a state in which its
// predictions can be reconciled against a real result.
func (s GameStatus) IsTerminal() bool {
	return s == GameStatusFinal
}

// InjurySeverity classifies an injury for impact scoring
type InjurySeverity string

const (
	InjurySeverityMinor    InjurySeverity = "minor"
	InjurySeverityModerate InjurySeverity = "moderate"
	InjurySeveritySevere   InjurySeverity = "severe"
)

// Weight returns the severity weight used by the injury impact score.
func (s InjurySeverity) Weight() float64 {
	switch s {
	case InjurySeveritySevere:
		return 3
	case InjurySeverityModerate:
		return 2
	case InjurySeverityMinor:
		return 1
	default:
		return 1
	}
}

// Team represents a league team
type Team struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	Conference   string    `json:"conference"`
	Division     string    `json:"division"`
	CreatedAt    time.Time `json:"created_at"`
}

// Player represents a rostered player
type Player struct {
	ID               string    `json:"id"`
	TeamID           string    `json:"team_id"`
	Name             string    `json:"name"`
	Position         string    `json:"position"`
	EfficiencyRating float64   `json:"efficiency_rating"`
	IsStarter        bool      `json:"is_starter"`
	CreatedAt        time.Time `json:"created_at"`
}

// Game represents a scheduled or completed game between two teams
type Game struct {
	ID         string     `json:"id"`
	Sport      Sport      `json:"sport"`
	Season     string     `json:"season"`
	HomeTeamID string     `json:"home_team_id"`
	AwayTeamID string     `json:"away_team_id"`
	Scheduled  time.Time  `json:"scheduled_at"`
	Status     GameStatus `json:"status"`
	HomeScore  *int       `json:"home_score,omitempty"`
	AwayScore  *int       `json:"away_score,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// IsCompleted reports whether the game has a usable final result.
func (g *Game) IsCompleted() bool {
	return g.Status.IsTerminal() && g.HomeScore != nil && g.AwayScore != nil
}

// WinnerID returns the winning team's ID for a completed game. Returns empty
// string for ties or incomplete games.
func (g *Game) WinnerID() string {
	if !g.IsCompleted() {
		return ""
	}
	switch {
	case *g.HomeScore > *g.AwayScore:
		return g.HomeTeamID
	case *g.AwayScore > *g.HomeScore:
		return g.AwayTeamID
	default:
		return ""
	}
}

// Spread returns home score minus away score for a completed game.
func (g *Game) Spread() float64 {
	if !g.IsCompleted() {
		return 0
	}
	return float64(*g.HomeScore - *g.AwayScore)
}

// InvolvesTeam reports whether the given team plays in this game.
func (g *Game) InvolvesTeam(teamID string) bool {
	return g.HomeTeamID == teamID || g.AwayTeamID == teamID
}

// Injury represents an injury report entry for a player
type Injury struct {
	ID          string         `json:"id"`
	PlayerID    string         `json:"player_id"`
	TeamID      string         `json:"team_id"`
	Severity    InjurySeverity `json:"severity"`
	Description string         `json:"description"`
	Status      string         `json:"status"` // "active" or "recovered"
	ReportedAt  time.Time      `json:"reported_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}

// Matchup identifies one upcoming game to predict
type Matchup struct {
	GameID     string    `json:"game_id"`
	Sport      Sport     `json:"sport"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	Scheduled  time.Time `json:"scheduled_at"`
}

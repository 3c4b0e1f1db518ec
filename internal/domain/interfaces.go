package domain

import "time"

// GameReader defines the data store read surface for games. The feature
// adapter and validator depend on this interface rather than a concrete
// repository so the store remains a replaceable collaborator.
type GameReader interface {
	// GetByID returns a game by identifier. Returns (nil, nil) when missing.
	GetByID(gameID string) (*Game, error)

	// RecentCompletedForTeam returns the most recent completed games for a
	// team before the given date, newest first, at most limit entries.
	RecentCompletedForTeam(teamID string, before time.Time, limit int) ([]Game, error)

	// RecentMeetings returns the most recent completed games between two
	// teams before the given date, newest first, at most limit entries.
	RecentMeetings(teamA, teamB string, before time.Time, limit int) ([]Game, error)

	// ScheduledBetween returns games scheduled inside [from, to).
	ScheduledBetween(from, to time.Time) ([]Game, error)
}

// GameWriter applies final results to games. Used by the scoreboard feed.
type GameWriter interface {
	// ApplyResult records a final score and marks the game terminal.
	ApplyResult(gameID string, homeScore, awayScore int, finishedAt time.Time) error
}

// TeamReader looks up team records
type TeamReader interface {
	// GetByID returns a team by identifier. Returns (nil, nil) when missing.
	GetByID(teamID string) (*Team, error)
}

// PlayerReader looks up player records for a team
type PlayerReader interface {
	// ForTeam returns all rostered players for a team.
	ForTeam(teamID string) ([]Player, error)
}

// InjuryReader looks up injury reports
type InjuryReader interface {
	// ActiveForTeam returns active injuries for a team as of the given date.
	ActiveForTeam(teamID string, asOf time.Time) ([]Injury, error)
}

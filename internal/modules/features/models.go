// Package features derives normalized per-team signals from raw entity
// records: form, fatigue, head-to-head history, injury impact and player
// strength. All sub-scores are bounded to [0, 10] and every signal has a
// documented neutral default used when upstream data is missing, so the
// adapter degrades instead of failing.
package features

// Momentum classifies a team's recent trajectory
type Momentum string

const (
	MomentumHot      Momentum = "hot"
	MomentumPositive Momentum = "positive"
	MomentumNeutral  Momentum = "neutral"
	MomentumCold     Momentum = "cold"
	MomentumUnknown  Momentum = "unknown"
)

// FormSnapshot summarizes a team's recent results
type FormSnapshot struct {
	GamesPlayed       int      `json:"games_played" msgpack:"games_played"`
	Wins              int      `json:"wins" msgpack:"wins"`
	Losses            int      `json:"losses" msgpack:"losses"`
	WinPct            float64  `json:"win_pct" msgpack:"win_pct"`
	AvgPointsFor      float64  `json:"avg_points_for" msgpack:"avg_points_for"`
	AvgPointsAgainst  float64  `json:"avg_points_against" msgpack:"avg_points_against"`
	PointDifferential float64  `json:"point_differential" msgpack:"point_differential"`
	RecentWinsLast5   int      `json:"recent_wins_last_5" msgpack:"recent_wins_last_5"`
	FormScore         float64  `json:"form_score" msgpack:"form_score"`
	Momentum          Momentum `json:"momentum" msgpack:"momentum"`
}

// FatigueSnapshot summarizes how rested a team is going into a game.
// FatigueScore is monotonically non-decreasing as DaysRest decreases and as
// GamesLast7Days increases.
type FatigueSnapshot struct {
	DaysRest       int     `json:"days_rest" msgpack:"days_rest"`
	GamesLast7Days int     `json:"games_last_7_days" msgpack:"games_last_7_days"`
	IsBackToBack   bool    `json:"is_back_to_back" msgpack:"is_back_to_back"`
	FatigueScore   float64 `json:"fatigue_score" msgpack:"fatigue_score"`
}

// HeadToHeadSummary summarizes recent meetings between two teams.
// H2HScore expresses team A's historical dominance; 5.0 is neutral.
type HeadToHeadSummary struct {
	TotalGames int     `json:"total_games" msgpack:"total_games"`
	WinsTeamA  int     `json:"wins_team_a" msgpack:"wins_team_a"`
	WinsTeamB  int     `json:"wins_team_b" msgpack:"wins_team_b"`
	AvgMargin  float64 `json:"avg_margin" msgpack:"avg_margin"`
	H2HScore   float64 `json:"h2h_score" msgpack:"h2h_score"`
}

// InjuryImpact summarizes the severity-weighted injury burden of a team
type InjuryImpact struct {
	ActiveInjuryCount int     `json:"active_injury_count" msgpack:"active_injury_count"`
	KeyPlayersOut     int     `json:"key_players_out" msgpack:"key_players_out"`
	ImpactScore       float64 `json:"impact_score" msgpack:"impact_score"`
}

// PlayerStrength summarizes roster quality from player efficiency ratings
type PlayerStrength struct {
	PlayerCount   int     `json:"player_count" msgpack:"player_count"`
	AvgEfficiency float64 `json:"avg_efficiency" msgpack:"avg_efficiency"`
	StrengthScore float64 `json:"strength_score" msgpack:"strength_score"`
}

// TeamSignals bundles all per-team sub-scores for one side of a matchup.
// The Available flags record which signals were computed from real data and
// which fell back to neutral defaults; the engine folds them into confidence.
type TeamSignals struct {
	Form    FormSnapshot    `json:"form"`
	Fatigue FatigueSnapshot `json:"fatigue"`
	Injury  InjuryImpact    `json:"injury"`
	Players PlayerStrength  `json:"players"`

	FormAvailable    bool `json:"form_available"`
	FatigueAvailable bool `json:"fatigue_available"`
	InjuryAvailable  bool `json:"injury_available"`
	PlayersAvailable bool `json:"players_available"`
}

// MatchupSignals is the complete adapter output for one matchup
type MatchupSignals struct {
	Home TeamSignals       `json:"home"`
	Away TeamSignals       `json:"away"`
	H2H  HeadToHeadSummary `json:"head_to_head"`

	H2HAvailable bool `json:"h2h_available"`
}

// Neutral defaults. Used whenever upstream records are missing; the adapter
// never surfaces missing data as an error.
const (
	NeutralWinPct        = 0.5
	NeutralFormScore     = 5.0
	NeutralH2HScore      = 5.0
	NeutralStrengthScore = 5.0
	NeutralFatigueScore  = 0.0 // no recorded games means fully rested
	NeutralImpactScore   = 0.0 // no injury reports means no known impact
)

// NeutralForm returns the form snapshot used when a team has no completed games.
func NeutralForm() FormSnapshot {
	return FormSnapshot{
		WinPct:    NeutralWinPct,
		FormScore: NeutralFormScore,
		Momentum:  MomentumUnknown,
	}
}

// NeutralFatigue returns the fatigue snapshot used when a team has no recent games.
func NeutralFatigue() FatigueSnapshot {
	return FatigueSnapshot{
		DaysRest:     restDaysFullyRested,
		FatigueScore: NeutralFatigueScore,
	}
}

// NeutralHeadToHead returns the summary used when two teams have never met.
func NeutralHeadToHead() HeadToHeadSummary {
	return HeadToHeadSummary{H2HScore: NeutralH2HScore}
}

// NeutralInjuryImpact returns the impact used when no injury data exists.
func NeutralInjuryImpact() InjuryImpact {
	return InjuryImpact{ImpactScore: NeutralImpactScore}
}

// NeutralPlayerStrength returns the strength used when no roster data exists.
func NeutralPlayerStrength() PlayerStrength {
	return PlayerStrength{StrengthScore: NeutralStrengthScore}
}

package features

import (
	"github.com/courtsight/courtsight/internal/domain"
)

// computeForm derives a form snapshot from a team's recent completed games,
// newest first. Games the team did not play in are ignored.
//
// The form score blends overall win rate, scoring differential and the last
// five results:
//
//	form = 5*win_pct + clamp(point_diff/10, -2.5, 2.5) + 2.5 + 2*(wins_last_5/5)
//
// clamped to [0, 10]. A team with no completed games gets the neutral
// snapshot (win_pct 0.5, form 5.0, momentum unknown).
func computeForm(teamID string, games []domain.Game) FormSnapshot {
	var played, wins int
	var pointsFor, pointsAgainst float64
	var winsLast5 int

	for _, g := range games {
		if !g.IsCompleted() || !g.InvolvesTeam(teamID) {
			continue
		}

		var scored, allowed int
		if g.HomeTeamID == teamID {
			scored, allowed = *g.HomeScore, *g.AwayScore
		} else {
			scored, allowed = *g.AwayScore, *g.HomeScore
		}

		won := g.WinnerID() == teamID
		if won {
			wins++
			if played < 5 {
				winsLast5++
			}
		}

		pointsFor += float64(scored)
		pointsAgainst += float64(allowed)
		played++
	}

	if played == 0 {
		return NeutralForm()
	}

	n := float64(played)
	winPct := float64(wins) / n
	avgFor := pointsFor / n
	avgAgainst := pointsAgainst / n
	diff := avgFor - avgAgainst

	recentWindow := played
	if recentWindow > 5 {
		recentWindow = 5
	}

	score := 5*winPct + clamp(diff/10, -2.5, 2.5) + 2.5 + 2*(float64(winsLast5)/5)
	score = clamp(score, 0, 10)

	return FormSnapshot{
		GamesPlayed:       played,
		Wins:              wins,
		Losses:            played - wins,
		WinPct:            winPct,
		AvgPointsFor:      avgFor,
		AvgPointsAgainst:  avgAgainst,
		PointDifferential: diff,
		RecentWinsLast5:   winsLast5,
		FormScore:         score,
		Momentum:          classifyMomentum(winsLast5, recentWindow),
	}
}

// classifyMomentum buckets the last-five record into a trajectory label.
func classifyMomentum(recentWins, recentWindow int) Momentum {
	if recentWindow == 0 {
		return MomentumUnknown
	}

	ratio := float64(recentWins) / float64(recentWindow)
	switch {
	case ratio >= 0.8:
		return MomentumHot
	case ratio >= 0.6:
		return MomentumPositive
	case ratio >= 0.4:
		return MomentumNeutral
	default:
		return MomentumCold
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

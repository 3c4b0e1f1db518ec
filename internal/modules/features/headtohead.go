package features

import (
	"github.com/courtsight/courtsight/internal/domain"
)

// computeHeadToHead summarizes recent meetings between team A and team B.
// The score is team A's win share mapped onto [0, 10]; with no prior
// meetings the summary is neutral (5.0). AvgMargin is from team A's
// perspective: positive means A has outscored B on average.
func computeHeadToHead(teamA, teamB string, meetings []domain.Game) HeadToHeadSummary {
	var total, winsA, winsB int
	var marginSum float64

	for _, g := range meetings {
		if !g.IsCompleted() {
			continue
		}

		var scoreA, scoreB int
		switch {
		case g.HomeTeamID == teamA && g.AwayTeamID == teamB:
			scoreA, scoreB = *g.HomeScore, *g.AwayScore
		case g.HomeTeamID == teamB && g.AwayTeamID == teamA:
			scoreA, scoreB = *g.AwayScore, *g.HomeScore
		default:
			continue
		}

		if scoreA > scoreB {
			winsA++
		} else if scoreB > scoreA {
			winsB++
		}
		marginSum += float64(scoreA - scoreB)
		total++
	}

	if total == 0 {
		return NeutralHeadToHead()
	}

	return HeadToHeadSummary{
		TotalGames: total,
		WinsTeamA:  winsA,
		WinsTeamB:  winsB,
		AvgMargin:  marginSum / float64(total),
		H2HScore:   10 * float64(winsA) / float64(total),
	}
}

package features

import (
	"time"

	"github.com/courtsight/courtsight/internal/domain"
)

// restDaysFullyRested is the rest threshold beyond which fatigue contributes
// nothing. Also used as the reported DaysRest when a team has no recent games.
const restDaysFullyRested = 4

// computeFatigue derives a fatigue snapshot from a team's recent game
// timestamps relative to the target game date. Games are expected newest
// first.
//
// The base contribution follows a fixed step table on days of rest
// (0 -> 10, 1 -> 7, 2 -> 4, 3 -> 2, >=4 -> 0), plus one point per game
// beyond two played in the trailing seven days, clamped to [0, 10]. The
// score is monotonically non-increasing in days of rest and non-decreasing
// in trailing game count.
func computeFatigue(games []domain.Game, target time.Time) FatigueSnapshot {
	var lastPlayed *time.Time
	gamesLast7 := 0
	weekStart := target.AddDate(0, 0, -7)

	for _, g := range games {
		when := g.Scheduled
		if g.FinishedAt != nil {
			when = *g.FinishedAt
		}
		if !when.Before(target) {
			continue
		}
		if lastPlayed == nil || when.After(*lastPlayed) {
			t := when
			lastPlayed = &t
		}
		if when.After(weekStart) {
			gamesLast7++
		}
	}

	if lastPlayed == nil {
		return NeutralFatigue()
	}

	daysRest := calendarDaysBetween(*lastPlayed, target) - 1
	if daysRest < 0 {
		daysRest = 0
	}
	if daysRest > restDaysFullyRested {
		daysRest = restDaysFullyRested
	}

	score := restStepScore(daysRest)
	if excess := gamesLast7 - 2; excess > 0 {
		score += float64(excess)
	}
	score = clamp(score, 0, 10)

	return FatigueSnapshot{
		DaysRest:       daysRest,
		GamesLast7Days: gamesLast7,
		IsBackToBack:   daysRest == 0,
		FatigueScore:   score,
	}
}

// restStepScore is the fixed days-rest step table.
func restStepScore(daysRest int) float64 {
	switch daysRest {
	case 0:
		return 10
	case 1:
		return 7
	case 2:
		return 4
	case 3:
		return 2
	default:
		return 0
	}
}

// calendarDaysBetween counts whole calendar days from a to b, ignoring the
// time of day. A game played "yesterday" is one calendar day away regardless
// of tip-off times.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	aMidnight := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bMidnight := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bMidnight.Sub(aMidnight).Hours() / 24)
}

package features

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/featurecache"
)

// Options configures the adapter's lookback windows and cache behavior
type Options struct {
	FormGameCount   int           // Recent completed games used for form (default 10)
	HeadToHeadCount int           // Recent meetings used for head-to-head (default 10)
	CacheTTL        time.Duration // Snapshot cache TTL (default 15 minutes)
}

func (o Options) withDefaults() Options {
	if o.FormGameCount <= 0 {
		o.FormGameCount = 10
	}
	if o.HeadToHeadCount <= 0 {
		o.HeadToHeadCount = 10
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 15 * time.Minute
	}
	return o
}

// Adapter reads raw entity records and derives normalized per-team signals.
// Missing upstream records resolve to documented neutral defaults; only
// malformed identifiers and store failures surface as errors.
type Adapter struct {
	games    domain.GameReader
	players  domain.PlayerReader
	injuries domain.InjuryReader
	cache    *featurecache.Repository
	opts     Options
	log      zerolog.Logger
}

// NewAdapter creates a new feature adapter. The cache may be nil, in which
// case every snapshot is recomputed on demand.
func NewAdapter(
	games domain.GameReader,
	players domain.PlayerReader,
	injuries domain.InjuryReader,
	cache *featurecache.Repository,
	opts Options,
	log zerolog.Logger,
) *Adapter {
	return &Adapter{
		games:    games,
		players:  players,
		injuries: injuries,
		cache:    cache,
		opts:     opts.withDefaults(),
		log:      log.With().Str("service", "features").Logger(),
	}
}

// cached snapshot wrappers keep the availability flag alongside the data so
// a cache hit restores both.
type cachedTeamFacts struct {
	Form             FormSnapshot    `msgpack:"form"`
	Fatigue          FatigueSnapshot `msgpack:"fatigue"`
	FormAvailable    bool            `msgpack:"form_available"`
	FatigueAvailable bool            `msgpack:"fatigue_available"`
}

type cachedH2H struct {
	Summary   HeadToHeadSummary `msgpack:"summary"`
	Available bool              `msgpack:"available"`
}

// Form returns a team's form snapshot as of the given date.
func (a *Adapter) Form(teamID string, asOf time.Time) (FormSnapshot, error) {
	facts, err := a.teamFacts(teamID, asOf)
	if err != nil {
		return FormSnapshot{}, err
	}
	return facts.Form, nil
}

// Fatigue returns a team's fatigue snapshot as of the given date.
func (a *Adapter) Fatigue(teamID string, asOf time.Time) (FatigueSnapshot, error) {
	facts, err := a.teamFacts(teamID, asOf)
	if err != nil {
		return FatigueSnapshot{}, err
	}
	return facts.Fatigue, nil
}

// HeadToHead returns the meeting summary between two teams as of a date,
// scored from team A's perspective.
func (a *Adapter) HeadToHead(teamA, teamB string, asOf time.Time) (HeadToHeadSummary, error) {
	cached, err := a.headToHead(teamA, teamB, asOf)
	if err != nil {
		return HeadToHeadSummary{}, err
	}
	return cached.Summary, nil
}

// Injuries returns a team's injury impact as of the given date.
func (a *Adapter) Injuries(teamID string, asOf time.Time) (InjuryImpact, error) {
	impact, _, _, err := a.injuryAndRoster(teamID, asOf)
	return impact, err
}

// Players returns a team's roster strength.
func (a *Adapter) Players(teamID string) (PlayerStrength, error) {
	if teamID == "" {
		return PlayerStrength{}, fmt.Errorf("team id is required")
	}
	roster, err := a.players.ForTeam(teamID)
	if err != nil {
		return PlayerStrength{}, fmt.Errorf("failed to load roster for %s: %w", teamID, err)
	}
	return computePlayerStrength(roster), nil
}

// ForMatchup collects every sub-score for one matchup. The per-team and
// head-to-head fetches are independent; they are issued concurrently and the
// first store failure cancels the rest.
func (a *Adapter) ForMatchup(ctx context.Context, matchup domain.Matchup) (*MatchupSignals, error) {
	if matchup.HomeTeamID == "" || matchup.AwayTeamID == "" {
		return nil, fmt.Errorf("matchup requires home and away team ids")
	}

	signals := &MatchupSignals{}
	asOf := matchup.Scheduled

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		facts, err := a.teamFacts(matchup.HomeTeamID, asOf)
		if err != nil {
			return err
		}
		signals.Home.Form = facts.Form
		signals.Home.Fatigue = facts.Fatigue
		signals.Home.FormAvailable = facts.FormAvailable
		signals.Home.FatigueAvailable = facts.FatigueAvailable
		return nil
	})

	g.Go(func() error {
		facts, err := a.teamFacts(matchup.AwayTeamID, asOf)
		if err != nil {
			return err
		}
		signals.Away.Form = facts.Form
		signals.Away.Fatigue = facts.Fatigue
		signals.Away.FormAvailable = facts.FormAvailable
		signals.Away.FatigueAvailable = facts.FatigueAvailable
		return nil
	})

	g.Go(func() error {
		h2h, err := a.headToHead(matchup.HomeTeamID, matchup.AwayTeamID, asOf)
		if err != nil {
			return err
		}
		signals.H2H = h2h.Summary
		signals.H2HAvailable = h2h.Available
		return nil
	})

	g.Go(func() error {
		impact, strength, available, err := a.injuryAndRoster(matchup.HomeTeamID, asOf)
		if err != nil {
			return err
		}
		signals.Home.Injury = impact
		signals.Home.Players = strength
		signals.Home.InjuryAvailable = available
		signals.Home.PlayersAvailable = strength.PlayerCount > 0
		return nil
	})

	g.Go(func() error {
		impact, strength, available, err := a.injuryAndRoster(matchup.AwayTeamID, asOf)
		if err != nil {
			return err
		}
		signals.Away.Injury = impact
		signals.Away.Players = strength
		signals.Away.InjuryAvailable = available
		signals.Away.PlayersAvailable = strength.PlayerCount > 0
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return signals, nil
}

// teamFacts computes (or restores from cache) form and fatigue for one team.
func (a *Adapter) teamFacts(teamID string, asOf time.Time) (cachedTeamFacts, error) {
	if teamID == "" {
		return cachedTeamFacts{}, fmt.Errorf("team id is required")
	}

	key := cacheKey(teamID, asOf)
	if a.cache != nil {
		var facts cachedTeamFacts
		if hit, err := a.cache.GetIfFresh(featurecache.KindForm, key, &facts); err == nil && hit {
			return facts, nil
		}
	}

	games, err := a.games.RecentCompletedForTeam(teamID, asOf, a.opts.FormGameCount)
	if err != nil {
		return cachedTeamFacts{}, fmt.Errorf("failed to load recent games for %s: %w", teamID, err)
	}

	facts := cachedTeamFacts{
		Form:             computeForm(teamID, games),
		Fatigue:          computeFatigue(games, asOf),
		FormAvailable:    len(games) > 0,
		FatigueAvailable: len(games) > 0,
	}

	if a.cache != nil {
		if err := a.cache.Store(featurecache.KindForm, key, facts, a.opts.CacheTTL); err != nil {
			a.log.Warn().Err(err).Str("team", teamID).Msg("Failed to cache team facts")
		}
	}

	return facts, nil
}

func (a *Adapter) headToHead(teamA, teamB string, asOf time.Time) (cachedH2H, error) {
	if teamA == "" || teamB == "" {
		return cachedH2H{}, fmt.Errorf("both team ids are required")
	}

	key := cacheKey(teamA+"|"+teamB, asOf)
	if a.cache != nil {
		var cached cachedH2H
		if hit, err := a.cache.GetIfFresh(featurecache.KindHeadToHead, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	meetings, err := a.games.RecentMeetings(teamA, teamB, asOf, a.opts.HeadToHeadCount)
	if err != nil {
		return cachedH2H{}, fmt.Errorf("failed to load meetings for %s vs %s: %w", teamA, teamB, err)
	}

	cached := cachedH2H{
		Summary:   computeHeadToHead(teamA, teamB, meetings),
		Available: len(meetings) > 0,
	}

	if a.cache != nil {
		if err := a.cache.Store(featurecache.KindHeadToHead, key, cached, a.opts.CacheTTL); err != nil {
			a.log.Warn().Err(err).Msg("Failed to cache head-to-head summary")
		}
	}

	return cached, nil
}

// injuryAndRoster loads a team's roster once and derives both injury impact
// (starters inform key-player attribution) and player strength from it.
func (a *Adapter) injuryAndRoster(teamID string, asOf time.Time) (InjuryImpact, PlayerStrength, bool, error) {
	if teamID == "" {
		return InjuryImpact{}, PlayerStrength{}, false, fmt.Errorf("team id is required")
	}

	roster, err := a.players.ForTeam(teamID)
	if err != nil {
		return InjuryImpact{}, PlayerStrength{}, false, fmt.Errorf("failed to load roster for %s: %w", teamID, err)
	}

	active, err := a.injuries.ActiveForTeam(teamID, asOf)
	if err != nil {
		return InjuryImpact{}, PlayerStrength{}, false, fmt.Errorf("failed to load injuries for %s: %w", teamID, err)
	}

	impact := computeInjuryImpact(active, starterSet(roster))
	strength := computePlayerStrength(roster)

	return impact, strength, len(active) > 0, nil
}

func cacheKey(id string, asOf time.Time) string {
	return id + "|" + asOf.UTC().Format("2006-01-02")
}

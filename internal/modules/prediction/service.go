package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/runlog"
)

// Service drives the generation pipeline: it scans upcoming scheduled games,
// runs the engine for any game without a stored prediction, and records the
// run.
type Service struct {
	engine *Engine
	repo   *Repository
	games  domain.GameReader
	runs   *runlog.Repository
	window time.Duration
	log    zerolog.Logger
}

// NewService creates a new prediction service. window bounds how far ahead
// the generation run looks for scheduled games.
func NewService(engine *Engine, repo *Repository, games domain.GameReader, runs *runlog.Repository, window time.Duration, log zerolog.Logger) *Service {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Service{
		engine: engine,
		repo:   repo,
		games:  games,
		runs:   runs,
		window: window,
		log:    log.With().Str("service", "prediction").Logger(),
	}
}

// RunSummary reports one generation run.
type RunSummary struct {
	RunUUID   string `json:"run_uuid"`
	Scanned   int    `json:"scanned"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Fallbacks int    `json:"fallbacks"`
	Failed    int    `json:"failed"`
}

// GenerateUpcoming predicts every scheduled game inside the lookahead window
// that has no stored prediction yet. Per-game failures are logged and
// counted; they never abort the run.
func (s *Service) GenerateUpcoming(ctx context.Context, asOf time.Time) (*RunSummary, error) {
	started := time.Now()

	games, err := s.games.ScheduledBetween(asOf, asOf.Add(s.window))
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled games: %w", err)
	}

	summary := &RunSummary{Scanned: len(games)}

	for i := range games {
		game := games[i]
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		exists, err := s.repo.ExistsForGame(game.ID)
		if err != nil {
			s.log.Error().Err(err).Str("game_id", game.ID).Msg("Failed to check existing prediction")
			summary.Failed++
			continue
		}
		if exists {
			summary.Skipped++
			continue
		}

		result, err := s.PredictGame(ctx, game)
		if err != nil {
			s.log.Error().Err(err).Str("game_id", game.ID).Msg("Failed to generate prediction")
			summary.Failed++
			continue
		}

		summary.Generated++
		if result.Fallback {
			summary.Fallbacks++
		}
	}

	summary.RunUUID = s.recordRun(started, summary)

	s.log.Info().
		Int("scanned", summary.Scanned).
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Int("fallbacks", summary.Fallbacks).
		Int("failed", summary.Failed).
		Msg("Generation run complete")

	return summary, nil
}

// PredictGame generates and stores a prediction for one game.
func (s *Service) PredictGame(ctx context.Context, game domain.Game) (*GenerateResult, error) {
	if game.ID == "" {
		return nil, fmt.Errorf("game is required")
	}
	if game.IsCompleted() {
		return nil, fmt.Errorf("game %s is already completed", game.ID)
	}

	matchup := domain.Matchup{
		GameID:     game.ID,
		Sport:      game.Sport,
		HomeTeamID: game.HomeTeamID,
		AwayTeamID: game.AwayTeamID,
		Scheduled:  game.Scheduled,
	}

	result, err := s.engine.Generate(ctx, matchup)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(result.Record); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) recordRun(started time.Time, summary *RunSummary) string {
	runID, err := s.runs.Append(runlog.Entry{
		Kind:       runlog.KindGeneration,
		StartedAt:  started.UTC(),
		DurationMS: time.Since(started).Milliseconds(),
		Processed:  summary.Scanned,
		Succeeded:  summary.Generated,
		Failed:     summary.Failed,
		Details:    fmt.Sprintf("skipped=%d fallbacks=%d", summary.Skipped, summary.Fallbacks),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to record generation run")
		return ""
	}
	return runID
}

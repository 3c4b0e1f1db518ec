// Package validation closes the feedback loop: once games finish, it matches
// stored predictions against actual outcomes and annotates each record
// exactly once.
package validation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/prediction"
	"github.com/courtsight/courtsight/internal/modules/runlog"
)

// Options bound one validation run.
type Options struct {
	// Lookback limits how far back unvalidated predictions are considered.
	Lookback time.Duration
	// BatchSize caps how many records one run processes.
	BatchSize int
}

func (o Options) withDefaults() Options {
	if o.Lookback <= 0 {
		o.Lookback = 7 * 24 * time.Hour
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	return o
}

// Service validates pending predictions against final game results.
type Service struct {
	predictions *prediction.Repository
	games       domain.GameReader
	runs        *runlog.Repository
	opts        Options
	log         zerolog.Logger
}

// NewService creates a new validation service
func NewService(predictions *prediction.Repository, games domain.GameReader, runs *runlog.Repository, opts Options, log zerolog.Logger) *Service {
	return &Service{
		predictions: predictions,
		games:       games,
		runs:        runs,
		opts:        opts.withDefaults(),
		log:         log.With().Str("service", "validation").Logger(),
	}
}

// RunSummary reports one validation run.
type RunSummary struct {
	RunUUID     string                      `json:"run_uuid"`
	Scanned     int                         `json:"scanned"`
	Validated   int                         `json:"validated"`
	Pending     int                         `json:"pending"`
	AlreadyDone int                         `json:"already_done"`
	Failed      int                         `json:"failed"`
	Stats       *prediction.AggregateStats  `json:"stats,omitempty"`
}

// ValidateCompleted processes unvalidated predictions whose games have
// finished. Predictions for still-pending games stay untouched; per-record
// failures are logged and skipped so one bad record never blocks the batch.
// Aggregate stats are recomputed from scratch after the batch.
func (s *Service) ValidateCompleted(ctx context.Context, asOf time.Time) (*RunSummary, error) {
	started := time.Now()

	cutoff := asOf.Add(-s.opts.Lookback)
	records, err := s.predictions.UnvalidatedSince(cutoff, s.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load unvalidated predictions: %w", err)
	}

	summary := &RunSummary{Scanned: len(records)}

	for _, record := range records {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		switch s.validateOne(record, asOf) {
		case outcomeValidated:
			summary.Validated++
		case outcomePending:
			summary.Pending++
		case outcomeAlreadyDone:
			summary.AlreadyDone++
		case outcomeFailed:
			summary.Failed++
		}
	}

	stats, err := s.predictions.Stats()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to recompute aggregate stats")
	} else {
		summary.Stats = stats
	}

	summary.RunUUID = s.recordRun(started, summary)

	s.log.Info().
		Int("scanned", summary.Scanned).
		Int("validated", summary.Validated).
		Int("pending", summary.Pending).
		Int("failed", summary.Failed).
		Msg("Validation run complete")

	return summary, nil
}

type validateOutcome int

const (
	outcomeValidated validateOutcome = iota
	outcomePending
	outcomeAlreadyDone
	outcomeFailed
)

func (s *Service) validateOne(record *prediction.Record, asOf time.Time) validateOutcome {
	game, err := s.games.GetByID(record.GameID)
	if err != nil {
		s.log.Error().Err(err).Str("game_id", record.GameID).Msg("Failed to load game for validation")
		return outcomeFailed
	}
	if game == nil {
		s.log.Warn().Str("game_id", record.GameID).Str("uuid", record.UUID).Msg("Prediction references unknown game")
		return outcomeFailed
	}
	if !game.IsCompleted() {
		return outcomePending
	}

	outcome := buildOutcome(record, game, asOf)

	annotated, err := s.predictions.AnnotateOutcome(record.UUID, outcome)
	if err != nil {
		s.log.Error().Err(err).Str("uuid", record.UUID).Msg("Failed to annotate prediction")
		return outcomeFailed
	}
	if !annotated {
		// Someone else validated this record since we read it; the original
		// annotation stands.
		return outcomeAlreadyDone
	}

	return outcomeValidated
}

// buildOutcome derives the annotation from the final score. Ties leave the
// winner empty and count as incorrect for every prediction, since the model
// always names a winner.
func buildOutcome(record *prediction.Record, game *domain.Game, asOf time.Time) prediction.Outcome {
	winnerID := game.WinnerID()
	wasCorrect := winnerID != "" && winnerID == record.PredictedWinnerID

	actualSpread := float64(*game.HomeScore - *game.AwayScore)
	margin := math.Abs(record.PredictedSpread - actualSpread)

	return prediction.Outcome{
		ActualHomeScore: *game.HomeScore,
		ActualAwayScore: *game.AwayScore,
		ActualWinnerID:  winnerID,
		WasCorrect:      wasCorrect,
		MarginOfError:   math.Round(margin*10) / 10,
		ValidatedAt:     asOf.UTC(),
	}
}

func (s *Service) recordRun(started time.Time, summary *RunSummary) string {
	var accuracy *float64
	if summary.Stats != nil && summary.Stats.Total > 0 {
		accuracy = &summary.Stats.AccuracyPct
	}

	runID, err := s.runs.Append(runlog.Entry{
		Kind:        runlog.KindValidation,
		StartedAt:   started.UTC(),
		DurationMS:  time.Since(started).Milliseconds(),
		Processed:   summary.Scanned,
		Succeeded:   summary.Validated,
		Failed:      summary.Failed,
		AccuracyPct: accuracy,
		Details:     fmt.Sprintf("pending=%d already_done=%d", summary.Pending, summary.AlreadyDone),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to record validation run")
		return ""
	}
	return runID
}

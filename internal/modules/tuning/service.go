package tuning

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/modules/prediction"
	"github.com/courtsight/courtsight/internal/modules/runlog"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

// Options bound one tuning run.
type Options struct {
	// Lookback limits how far back validated predictions are considered.
	Lookback time.Duration
	// MinSample is the minimum number of validated records required before
	// any proposal is made.
	MinSample int
	// MinDecisive is the minimum number of decisive records a factor needs
	// before its accuracy moves its weight. Below it the factor keeps its
	// current weight.
	MinDecisive int
	// Damping scales each step toward the ideal share. Full steps overreact
	// to small samples.
	Damping float64
	// DecisiveThreshold is the minimum |home-away| for a factor to count as
	// having taken a side on the 0-10 scale.
	DecisiveThreshold float64
}

func (o Options) withDefaults() Options {
	if o.Lookback <= 0 {
		o.Lookback = 30 * 24 * time.Hour
	}
	if o.MinSample <= 0 {
		o.MinSample = 20
	}
	if o.MinDecisive <= 0 {
		o.MinDecisive = 10
	}
	if o.Damping <= 0 || o.Damping > 1 {
		o.Damping = 0.3
	}
	if o.DecisiveThreshold <= 0 {
		o.DecisiveThreshold = 1.0
	}
	return o
}

// invertedFactors mirrors the engine's sign convention: for these factors a
// higher away value favors the home side.
var invertedFactors = map[weights.Factor]bool{
	weights.FactorInjury:  true,
	weights.FactorFatigue: true,
}

// Service measures per-factor accuracy over validated history and proposes
// retuned weight sets.
type Service struct {
	predictions *prediction.Repository
	weights     *weights.Repository
	runs        *runlog.Repository
	opts        Options
	log         zerolog.Logger
}

// NewService creates a new tuning service
func NewService(predictions *prediction.Repository, weightsRepo *weights.Repository, runs *runlog.Repository, opts Options, log zerolog.Logger) *Service {
	return &Service{
		predictions: predictions,
		weights:     weightsRepo,
		runs:        runs,
		opts:        opts.withDefaults(),
		log:         log.With().Str("service", "tuning").Logger(),
	}
}

// Tune analyzes validated, non-fallback predictions inside the lookback
// window and stores a proposed weight set. With fewer than MinSample records
// it reports an insufficient sample and proposes nothing. The proposal never
// self-adopts; adoption is a separate explicit step.
func (s *Service) Tune(ctx context.Context, asOf time.Time) (*Report, error) {
	started := time.Now()

	current, err := s.weights.Active()
	if err != nil {
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	records, err := s.predictions.ValidatedSince(asOf.Add(-s.opts.Lookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load validated predictions: %w", err)
	}

	sample := make([]*prediction.Record, 0, len(records))
	for _, record := range records {
		if record.IsFallback {
			continue
		}
		sample = append(sample, record)
	}

	report := &Report{
		SampleSize:  len(sample),
		MinSample:   s.opts.MinSample,
		BaseVersion: current.Version,
		GeneratedAt: time.Now().UTC(),
	}

	if len(sample) < s.opts.MinSample {
		report.InsufficientSample = true
		report.RunUUID = s.recordRun(started, report, nil)
		s.log.Info().
			Int("sample_size", len(sample)).
			Int("min_sample", s.opts.MinSample).
			Msg("Tuning skipped, sample too small")
		return report, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	accuracies := s.measureFactors(sample)
	proposed := s.propose(current, accuracies)

	report.Factors = make([]FactorReport, 0, len(weights.AllFactors))
	overallCorrect := 0
	for _, factor := range weights.AllFactors {
		acc := accuracies[factor]
		fr := FactorReport{
			Factor:         factor,
			Decisive:       acc.decisive,
			Correct:        acc.correct,
			AccuracyPct:    acc.pct(),
			Tier:           tierFor(acc.pct()),
			CurrentWeight:  current.Get(factor),
			ProposedWeight: proposed[factor],
		}
		report.Factors = append(report.Factors, fr)
	}
	for _, record := range sample {
		if record.WasCorrect != nil && *record.WasCorrect {
			overallCorrect++
		}
	}
	overallAccuracy := 100 * float64(overallCorrect) / float64(len(sample))

	version, err := s.weights.Propose(weights.WeightSet{
		Weights: proposed,
		Source:  "tuner",
		Notes:   fmt.Sprintf("sample=%d overall_accuracy=%.1f%% base_version=%d", len(sample), overallAccuracy, current.Version),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store proposed weights: %w", err)
	}
	report.ProposedVersion = version

	report.RunUUID = s.recordRun(started, report, &overallAccuracy)

	s.log.Info().
		Int("sample_size", len(sample)).
		Int("proposed_version", version).
		Float64("overall_accuracy", overallAccuracy).
		Msg("Tuning run complete")

	return report, nil
}

type factorAccuracy struct {
	decisive int
	correct  int
}

func (a factorAccuracy) pct() float64 {
	if a.decisive == 0 {
		return 0
	}
	return float64(a.correct) / float64(a.decisive) * 100
}

// measureFactors counts, per factor, how often a decisive signal pointed at
// the side that actually won. Ties and records without scores are excluded.
func (s *Service) measureFactors(sample []*prediction.Record) map[weights.Factor]factorAccuracy {
	accuracies := make(map[weights.Factor]factorAccuracy, len(weights.AllFactors))

	for _, record := range sample {
		if record.ActualHomeScore == nil || record.ActualAwayScore == nil {
			continue
		}
		if *record.ActualHomeScore == *record.ActualAwayScore {
			continue
		}
		homeWon := *record.ActualHomeScore > *record.ActualAwayScore

		for _, factor := range weights.AllFactors {
			values, ok := record.FeatureVector[factor]
			if !ok || !values.Available {
				continue
			}

			diff := values.Differential()
			if invertedFactors[factor] {
				diff = -diff
			}
			if diff > -s.opts.DecisiveThreshold && diff < s.opts.DecisiveThreshold {
				continue
			}

			acc := accuracies[factor]
			acc.decisive++
			if (diff > 0) == homeWon {
				acc.correct++
			}
			accuracies[factor] = acc
		}
	}

	return accuracies
}

// propose derives ideal weight shares from measured accuracies and steps the
// current weights a damped fraction toward them. Factors without enough
// decisive samples keep their current weight, so the measured factors
// redistribute only their own combined mass.
func (s *Service) propose(current weights.WeightSet, accuracies map[weights.Factor]factorAccuracy) map[weights.Factor]float64 {
	measured := make([]weights.Factor, 0, len(weights.AllFactors))
	accSum := 0.0
	mass := 0.0
	for _, factor := range weights.AllFactors {
		acc := accuracies[factor]
		if acc.decisive < s.opts.MinDecisive {
			continue
		}
		measured = append(measured, factor)
		accSum += acc.pct()
		mass += current.Get(factor)
	}

	ideal := make(map[weights.Factor]float64, len(weights.AllFactors))
	for _, factor := range weights.AllFactors {
		ideal[factor] = current.Get(factor)
	}
	if accSum > 0 {
		for _, factor := range measured {
			ideal[factor] = mass * accuracies[factor].pct() / accSum
		}
	}

	proposed := make(map[weights.Factor]float64, len(weights.AllFactors))
	for _, factor := range weights.AllFactors {
		cur := current.Get(factor)
		proposed[factor] = cur + s.opts.Damping*(ideal[factor]-cur)
	}

	return clampAndNormalize(proposed)
}

// clampAndNormalize enforces the per-factor bounds and the sum-to-one
// invariant together. Each weight is clamped to [MinWeight, MaxWeight] first;
// the mass the clamp added or removed is then redistributed in proportion to
// each factor's remaining slack toward the relevant bound, so the correction
// never pushes a weight back out of bounds. The bounds admit sums on either
// side of one, so the redistribution always lands exactly.
func clampAndNormalize(w map[weights.Factor]float64) map[weights.Factor]float64 {
	out := make(map[weights.Factor]float64, len(w))
	sum := 0.0
	for factor, v := range w {
		if v < weights.MinWeight {
			v = weights.MinWeight
		}
		if v > weights.MaxWeight {
			v = weights.MaxWeight
		}
		out[factor] = v
		sum += v
	}

	const eps = 1e-9
	switch {
	case sum > 1+eps:
		reducible := 0.0
		for _, v := range out {
			reducible += v - weights.MinWeight
		}
		if reducible > 0 {
			excess := sum - 1
			for factor, v := range out {
				out[factor] = v - excess*(v-weights.MinWeight)/reducible
			}
		}
	case sum < 1-eps:
		room := 0.0
		for _, v := range out {
			room += weights.MaxWeight - v
		}
		if room > 0 {
			deficit := 1 - sum
			for factor, v := range out {
				out[factor] = v + deficit*(weights.MaxWeight-v)/room
			}
		}
	}

	return out
}

func (s *Service) recordRun(started time.Time, report *Report, accuracy *float64) string {
	details := fmt.Sprintf("base_version=%d", report.BaseVersion)
	if report.InsufficientSample {
		details = fmt.Sprintf("insufficient_sample min=%d", report.MinSample)
	} else {
		details = fmt.Sprintf("%s proposed_version=%d", details, report.ProposedVersion)
	}

	proposals := 0
	if report.ProposedVersion > 0 {
		proposals = 1
	}

	runID, err := s.runs.Append(runlog.Entry{
		Kind:        runlog.KindTuning,
		StartedAt:   started.UTC(),
		DurationMS:  time.Since(started).Milliseconds(),
		Processed:   report.SampleSize,
		Succeeded:   proposals,
		AccuracyPct: accuracy,
		Details:     details,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to record tuning run")
		return ""
	}
	return runID
}

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/database"
	"github.com/courtsight/courtsight/internal/featurecache"
	"github.com/courtsight/courtsight/internal/modules/prediction"
	"github.com/courtsight/courtsight/internal/modules/tuning"
	"github.com/courtsight/courtsight/internal/modules/validation"
)

// jobTimeout bounds every scheduled run so a stuck job cannot pile up behind
// the next tick.
const jobTimeout = 10 * time.Minute

// GeneratePredictionsJob predicts upcoming scheduled games.
type GeneratePredictionsJob struct {
	Service *prediction.Service
	Log     zerolog.Logger
}

func (j *GeneratePredictionsJob) Name() string { return "generate_predictions" }

func (j *GeneratePredictionsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, err := j.Service.GenerateUpcoming(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	j.Log.Info().
		Int("scanned", summary.Scanned).
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Int("fallbacks", summary.Fallbacks).
		Msg("Prediction generation run finished")
	return nil
}

// ValidatePredictionsJob reconciles predictions against finished games.
type ValidatePredictionsJob struct {
	Service *validation.Service
	Log     zerolog.Logger
}

func (j *ValidatePredictionsJob) Name() string { return "validate_predictions" }

func (j *ValidatePredictionsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, err := j.Service.ValidateCompleted(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	j.Log.Info().
		Int("validated", summary.Validated).
		Int("pending", summary.Pending).
		Int("failed", summary.Failed).
		Msg("Validation run finished")
	return nil
}

// TuneWeightsJob proposes retuned ensemble weights from validated history.
type TuneWeightsJob struct {
	Service *tuning.Service
	Log     zerolog.Logger
}

func (j *TuneWeightsJob) Name() string { return "tune_weights" }

func (j *TuneWeightsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := j.Service.Tune(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	if report.InsufficientSample {
		j.Log.Info().
			Int("sample_size", report.SampleSize).
			Int("min_sample", report.MinSample).
			Msg("Tuning run skipped, sample too small")
		return nil
	}

	j.Log.Info().
		Int("sample_size", report.SampleSize).
		Int("proposed_version", report.ProposedVersion).
		Msg("Tuning run proposed new weights")
	return nil
}

// CacheCleanupJob evicts expired feature snapshots.
type CacheCleanupJob struct {
	Cache *featurecache.Repository
	Log   zerolog.Logger
}

func (j *CacheCleanupJob) Name() string { return "cache_cleanup" }

func (j *CacheCleanupJob) Run() error {
	deleted, err := j.Cache.DeleteExpired()
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.Log.Info().Int64("deleted", deleted).Msg("Evicted expired feature snapshots")
	}
	return nil
}

// WALCheckpointJob truncates the write-ahead logs so long-running processes
// do not accumulate unbounded WAL files.
type WALCheckpointJob struct {
	Databases []*database.DB
	Log       zerolog.Logger
}

func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

func (j *WALCheckpointJob) Run() error {
	for _, db := range j.Databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.Log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			return err
		}
	}
	return nil
}

// BackupRunner is implemented by the backup service. Declared here so the
// job does not depend on the reliability package directly.
type BackupRunner interface {
	BackupAll(ctx context.Context) error
}

// BackupJob uploads database snapshots to remote storage.
type BackupJob struct {
	Runner BackupRunner
	Log    zerolog.Logger
}

func (j *BackupJob) Name() string { return "backup" }

func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	return j.Runner.BackupAll(ctx)
}

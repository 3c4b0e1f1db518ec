// Package main is the entry point for the CourtSight game outcome prediction
// service. It runs a closed feedback loop: aggregate matchup features,
// generate weighted ensemble predictions, validate them against final scores,
// and periodically retune the ensemble weights from the validated history.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/clients/scoreboard"
	"github.com/courtsight/courtsight/internal/config"
	"github.com/courtsight/courtsight/internal/database"
	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/featurecache"
	"github.com/courtsight/courtsight/internal/modules/features"
	"github.com/courtsight/courtsight/internal/modules/league"
	leaguehandlers "github.com/courtsight/courtsight/internal/modules/league/handlers"
	"github.com/courtsight/courtsight/internal/modules/prediction"
	predictionhandlers "github.com/courtsight/courtsight/internal/modules/prediction/handlers"
	"github.com/courtsight/courtsight/internal/modules/runlog"
	"github.com/courtsight/courtsight/internal/modules/tuning"
	tuninghandlers "github.com/courtsight/courtsight/internal/modules/tuning/handlers"
	"github.com/courtsight/courtsight/internal/modules/validation"
	validationhandlers "github.com/courtsight/courtsight/internal/modules/validation/handlers"
	"github.com/courtsight/courtsight/internal/modules/weights"
	weightshandlers "github.com/courtsight/courtsight/internal/modules/weights/handlers"
	"github.com/courtsight/courtsight/internal/reliability"
	"github.com/courtsight/courtsight/internal/scheduler"
	"github.com/courtsight/courtsight/internal/server"
	"github.com/courtsight/courtsight/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("sport", cfg.Sport).Msg("Starting CourtSight")

	// Four-database layout: league entities, the append-only prediction
	// ledger, versioned configuration, and the ephemeral feature cache.
	leagueDB := mustOpen(log, database.Config{
		Path: dataPath(cfg, "league.db"), Name: "league", Profile: database.ProfileStandard,
	})
	defer leagueDB.Close()

	predictionsDB := mustOpen(log, database.Config{
		Path: dataPath(cfg, "predictions.db"), Name: "predictions", Profile: database.ProfileLedger,
	})
	defer predictionsDB.Close()

	configDB := mustOpen(log, database.Config{
		Path: dataPath(cfg, "config.db"), Name: "config", Profile: database.ProfileStandard,
	})
	defer configDB.Close()

	cacheDB := mustOpen(log, database.Config{
		Path: dataPath(cfg, "cache.db"), Name: "cache", Profile: database.ProfileCache,
	})
	defer cacheDB.Close()

	// Repositories
	gameRepo := league.NewGameRepository(leagueDB.Conn(), log)
	teamRepo := league.NewTeamRepository(leagueDB.Conn(), log)
	playerRepo := league.NewPlayerRepository(leagueDB.Conn(), log)
	injuryRepo := league.NewInjuryRepository(leagueDB.Conn(), log)
	predictionRepo := prediction.NewRepository(predictionsDB.Conn(), log)
	weightsRepo := weights.NewRepository(configDB.Conn(), log)
	runRepo := runlog.NewRepository(predictionsDB.Conn(), log)
	cacheRepo := featurecache.NewRepository(cacheDB.Conn())

	// Sport profile, optionally overridden from a YAML file.
	profile := prediction.ProfileForSport(domain.Sport(cfg.Sport))
	if cfg.SportProfilePath != "" {
		profile, err = prediction.LoadProfile(cfg.SportProfilePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SportProfilePath).Msg("Failed to load sport profile")
		}
	}

	// Services
	adapter := features.NewAdapter(gameRepo, playerRepo, injuryRepo, cacheRepo, features.Options{
		FormGameCount:   cfg.FormGameCount,
		HeadToHeadCount: cfg.HeadToHeadCount,
	}, log)

	engine := prediction.NewEngine(adapter, weightsRepo, profile, log)
	predictionService := prediction.NewService(engine, predictionRepo, gameRepo, runRepo, 24*time.Hour, log)

	validationService := validation.NewService(predictionRepo, gameRepo, runRepo, validation.Options{
		Lookback:  time.Duration(cfg.ValidationLookback) * 24 * time.Hour,
		BatchSize: cfg.ValidationBatch,
	}, log)

	tuningService := tuning.NewService(predictionRepo, weightsRepo, runRepo, tuning.Options{
		Lookback:  time.Duration(cfg.TuningLookback) * 24 * time.Hour,
		MinSample: cfg.TuningMinSample,
	}, log)

	// Scheduler and jobs
	sched := scheduler.New(log)

	generateJob := &scheduler.GeneratePredictionsJob{Service: predictionService, Log: log}
	validateJob := &scheduler.ValidatePredictionsJob{Service: validationService, Log: log}
	tuneJob := &scheduler.TuneWeightsJob{Service: tuningService, Log: log}
	cleanupJob := &scheduler.CacheCleanupJob{Cache: cacheRepo, Log: log}
	checkpointJob := &scheduler.WALCheckpointJob{
		Databases: []*database.DB{leagueDB, predictionsDB, configDB, cacheDB},
		Log:       log,
	}

	mustSchedule(log, sched, cfg.PredictionSchedule, generateJob)
	mustSchedule(log, sched, cfg.ValidationSchedule, validateJob)
	mustSchedule(log, sched, cfg.TuningSchedule, tuneJob)
	mustSchedule(log, sched, "0 15 * * * *", cleanupJob)
	mustSchedule(log, sched, "0 45 4 * * *", checkpointJob)

	systemJobs := []scheduler.Job{generateJob, validateJob, tuneJob, cleanupJob, checkpointJob}

	// Remote backups, only when configured.
	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(
			context.Background(),
			cfg.Backup.Endpoint, cfg.Backup.Region,
			cfg.Backup.AccessKeyID, cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket, log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}

		backupService := reliability.NewBackupService(
			s3Client,
			[]*database.DB{leagueDB, predictionsDB, configDB, cacheDB},
			cfg.DataDir, cfg.Backup.RetainCount, log,
		)
		backupJob := &scheduler.BackupJob{Runner: backupService, Log: log}
		mustSchedule(log, sched, cfg.BackupSchedule, backupJob)
		systemJobs = append(systemJobs, backupJob)
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	systemHandlers := server.NewSystemHandlers(log, cfg.DataDir,
		[]*database.DB{leagueDB, predictionsDB, configDB, cacheDB}, runRepo)
	systemHandlers.SetJobs(sched, systemJobs...)

	srv := server.New(server.Config{
		Log:     log,
		Config:  cfg,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,

		LeagueDB:      leagueDB,
		PredictionsDB: predictionsDB,
		ConfigDB:      configDB,
		CacheDB:       cacheDB,

		LeagueHandler:     leaguehandlers.NewHandler(gameRepo, teamRepo, playerRepo, injuryRepo, log),
		PredictionHandler: predictionhandlers.NewHandler(predictionService, predictionRepo, log),
		ValidationHandler: validationhandlers.NewHandler(validationService, runRepo, log),
		TuningHandler:     tuninghandlers.NewHandler(tuningService, runRepo, log),
		WeightsHandler:    weightshandlers.NewHandler(weightsRepo, log),
		SystemHandlers:    systemHandlers,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Live scoreboard feed, only when configured. Final scores it applies are
	// what the validation job reconciles predictions against.
	if cfg.ScoreboardURL != "" {
		feed := scoreboard.NewClient(cfg.ScoreboardURL, gameRepo, log)
		go func() {
			if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Scoreboard feed stopped")
			}
		}()
		log.Info().Str("url", cfg.ScoreboardURL).Msg("Scoreboard feed started")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func dataPath(cfg *config.Config, filename string) string {
	return filepath.Join(cfg.DataDir, filename)
}

func mustOpen(log zerolog.Logger, cfg database.Config) *database.DB {
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to migrate database")
	}
	return db
}

func mustSchedule(log zerolog.Logger, sched *scheduler.Scheduler, schedule string, job scheduler.Job) {
	if schedule == "" {
		return
	}
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to schedule job")
	}
}

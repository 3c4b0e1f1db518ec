// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for all databases (always absolute)
	Sport            string // Active sport profile ("nba", "nfl")
	SportProfilePath string // Optional YAML file overriding sport profile constants
	LogLevel         string
	Port             int
	DevMode          bool

	// Prediction pipeline knobs. These are policy inputs, not core algorithm
	// parameters; the defaults match the documented behavior.
	FormGameCount      int // Recent completed games used for form (default 10)
	HeadToHeadCount    int // Recent meetings used for head-to-head (default 10)
	ValidationLookback int // Days of concluded games a validation batch scans
	ValidationBatch    int // Max predictions validated per invocation
	TuningLookback     int // Days of validated predictions a tuning run reads
	TuningMinSample    int // Minimum validated predictions before tuning proposes

	// Cron schedules for the background jobs. Empty disables a job.
	PredictionSchedule string
	ValidationSchedule string
	TuningSchedule     string
	BackupSchedule     string

	// Scoreboard feed (live game status websocket). Empty disables the client.
	ScoreboardURL string

	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup storage configuration
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // Custom endpoint for S3-compatible stores (R2, MinIO)
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	RetainCount     int // Number of backup archives to keep remotely
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("COURTSIGHT_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Sport:            getEnv("COURTSIGHT_SPORT", "nba"),
		SportProfilePath: getEnv("COURTSIGHT_SPORT_PROFILE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvAsInt("PORT", 8040),
		DevMode:          getEnvAsBool("DEV_MODE", false),

		FormGameCount:      getEnvAsInt("FORM_GAME_COUNT", 10),
		HeadToHeadCount:    getEnvAsInt("H2H_GAME_COUNT", 10),
		ValidationLookback: getEnvAsInt("VALIDATION_LOOKBACK_DAYS", 7),
		ValidationBatch:    getEnvAsInt("VALIDATION_BATCH_SIZE", 100),
		TuningLookback:     getEnvAsInt("TUNING_LOOKBACK_DAYS", 30),
		TuningMinSample:    getEnvAsInt("TUNING_MIN_SAMPLE", 20),

		// Six-field cron expressions (with seconds).
		PredictionSchedule: getEnv("PREDICTION_SCHEDULE", "0 0 9 * * *"),
		ValidationSchedule: getEnv("VALIDATION_SCHEDULE", "0 30 * * * *"),
		TuningSchedule:     getEnv("TUNING_SCHEDULE", "0 0 5 * * 1"),
		BackupSchedule:     getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),

		ScoreboardURL: getEnv("SCOREBOARD_WS_URL", ""),

		Backup: loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.FormGameCount <= 0 {
		return fmt.Errorf("FORM_GAME_COUNT must be positive, got %d", c.FormGameCount)
	}
	if c.ValidationBatch <= 0 {
		return fmt.Errorf("VALIDATION_BATCH_SIZE must be positive, got %d", c.ValidationBatch)
	}
	if c.TuningMinSample < 0 {
		return fmt.Errorf("TUNING_MIN_SAMPLE must not be negative, got %d", c.TuningMinSample)
	}
	if c.Backup != nil && c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_S3_BUCKET required when backups are enabled")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadBackupConfig loads backup storage configuration from environment variables
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		RetainCount:     getEnvAsInt("BACKUP_RETAIN_COUNT", 14),
	}
}

// Package config loads environment-driven settings. A .env file is read
// when present (godotenv); every value has a default and invalid values
// fall back to it instead of failing startup.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server and the archival pipeline consume
// from the environment.
type Config struct {
	Port      int
	DBPath    string
	BackupDir string

	BatchSize         int
	RequireBackup     bool
	UndoRetentionDays int
	SchedulerEnabled  bool
	MinRunDay         int
	Timezone          string
}

// Load reads .env when present and resolves all settings.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] Skipping .env: %v", err)
	}

	return Config{
		Port:      envInt("PORT", 8080),
		DBPath:    envString("DATABASE_PATH", "studio.db"),
		BackupDir: envString("BACKUP_DIR", "./backups"),

		BatchSize:         envInt("EXTRATO_BATCH_SIZE", 100),
		RequireBackup:     envBool("EXTRATO_REQUIRE_BACKUP", true),
		UndoRetentionDays: envInt("EXTRATO_UNDO_RETENTION_DAYS", 30),
		SchedulerEnabled:  envBool("EXTRATO_SCHEDULER_ENABLED", true),
		MinRunDay:         envInt("EXTRATO_MIN_RUN_DAY", 2),
		Timezone:          envString("EXTRATO_TIMEZONE", "UTC"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[Config] Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

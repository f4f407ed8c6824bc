package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diediegodie/tattoo-studio-system/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "studio.db", cfg.DBPath)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.True(t, cfg.RequireBackup)
	assert.Equal(t, 30, cfg.UndoRetentionDays)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 2, cfg.MinRunDay)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EXTRATO_BATCH_SIZE", "250")
	t.Setenv("EXTRATO_REQUIRE_BACKUP", "false")
	t.Setenv("EXTRATO_TIMEZONE", "America/Sao_Paulo")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.False(t, cfg.RequireBackup)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("EXTRATO_REQUIRE_BACKUP", "maybe")

	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.RequireBackup)
}

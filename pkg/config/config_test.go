package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, "30m0s", cfg.SessionTimeout().String())
	assert.Equal(t, "1m0s", cfg.MonitorInterval().String())
	assert.Equal(t, "15m0s", cfg.LockoutDuration().String())
	assert.Equal(t, "5s", cfg.SimulatorTick().String())
	assert.InDelta(t, 0.10, cfg.SimProbability, 1e-9)
	assert.InDelta(t, 1000.0, cfg.StartingBalance, 1e-9)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := "SERVER_PORT=9090\nSESSION_TIMEOUT_MINUTES=10\nMAX_LOGIN_ATTEMPTS=3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "10m0s", cfg.SessionTimeout().String())
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	// Values the file does not mention keep their defaults.
	assert.Equal(t, 15, cfg.LockoutMinutes)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("SESSION_SIGNING_KEY", "test-key")
	t.Setenv("SIMULATOR_EVENT_PROBABILITY", "0.5")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.SessionSigningKey)
	assert.InDelta(t, 0.5, cfg.SimProbability, 1e-9)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "otelkeep.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 4317, cfg.Port)
	assert.True(t, cfg.TracesEnabled)
	assert.True(t, cfg.MetricsEnabled)
	assert.True(t, cfg.LogsEnabled)
	assert.Equal(t, 72, cfg.Retention.SpanTTLHours)
	assert.Equal(t, 168, cfg.Retention.MetricTTLHours)
	assert.Equal(t, 48, cfg.Retention.LogTTLHours)
	assert.Equal(t, 24*time.Hour, time.Duration(cfg.SweepInterval))
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"db_path": "/var/lib/otelkeep/data.db",
		"port": 4400,
		"logs_enabled": false,
		"retention": {"span_ttl_hours": 12, "metric_ttl_hours": 24, "log_ttl_hours": 6},
		"sweep_interval": "30m"
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/otelkeep/data.db", cfg.DBPath)
	assert.Equal(t, 4400, cfg.Port)
	assert.False(t, cfg.LogsEnabled)
	assert.True(t, cfg.TracesEnabled, "absent keys keep defaults")
	assert.Equal(t, 12, cfg.Retention.SpanTTLHours)
	assert.Equal(t, 30*time.Minute, time.Duration(cfg.SweepInterval))
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sweep_interval": "soon"}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 4400, "db_path": "file.db"}`), 0o644))

	t.Setenv("OTELKEEP_PORT", "5000")
	t.Setenv("OTELKEEP_DB_PATH", "env.db")
	t.Setenv("OTELKEEP_TRACES_ENABLED", "false")
	t.Setenv("OTELKEEP_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "env.db", cfg.DBPath)
	assert.False(t, cfg.TracesEnabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("OTELKEEP_PORT", "70000")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

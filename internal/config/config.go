// Package config loads the process settings from an optional JSON
// file with OTELKEEP_* environment overrides. Environment wins over
// file, file wins over defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"otelkeep/internal/logger"
	"otelkeep/internal/storage"
)

// Config is the full process configuration.
type Config struct {
	DBPath string `json:"db_path"`

	Host           string `json:"host"`
	Port           int    `json:"port"`
	TracesEnabled  bool   `json:"traces_enabled"`
	MetricsEnabled bool   `json:"metrics_enabled"`
	LogsEnabled    bool   `json:"logs_enabled"`

	Retention     storage.RetentionPolicy `json:"retention"`
	SweepInterval Duration                `json:"sweep_interval"`

	Log logger.Config `json:"log"`
}

// Duration wraps time.Duration for "24h"-style JSON values.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Default returns the configuration used when no file and no
// environment overrides are present: all signals enabled on the
// standard OTLP gRPC port, daily retention sweeps.
func Default() Config {
	return Config{
		DBPath:         "otelkeep.db",
		Host:           "127.0.0.1",
		Port:           4317,
		TracesEnabled:  true,
		MetricsEnabled: true,
		LogsEnabled:    true,
		Retention:      storage.DefaultRetentionPolicy(),
		SweepInterval:  Duration(24 * time.Hour),
		Log:            logger.Config{Level: "info"},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides. A missing file at an explicitly given path
// is an error; an empty path skips the file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OTELKEEP_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("OTELKEEP_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("OTELKEEP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("OTELKEEP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	for _, sig := range []struct {
		env     string
		enabled *bool
	}{
		{"OTELKEEP_TRACES_ENABLED", &cfg.TracesEnabled},
		{"OTELKEEP_METRICS_ENABLED", &cfg.MetricsEnabled},
		{"OTELKEEP_LOGS_ENABLED", &cfg.LogsEnabled},
	} {
		if v := os.Getenv(sig.env); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*sig.enabled = b
			}
		}
	}
}

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otelkeep/internal/config"
	"otelkeep/internal/logger"
	"otelkeep/internal/server"
	"otelkeep/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet; this is the one place stderr is written raw.
		os.Stderr.WriteString("otelkeep: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	store, err := storage.New(cfg.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open storage")
	}
	log.Info().Str("db_path", store.Path()).Msg("storage ready")

	store.StartRetentionWorker(cfg.Retention, time.Duration(cfg.SweepInterval))

	mgr := server.NewManager(server.Settings{
		Host:           cfg.Host,
		Port:           cfg.Port,
		TracesEnabled:  cfg.TracesEnabled,
		MetricsEnabled: cfg.MetricsEnabled,
		LogsEnabled:    cfg.LogsEnabled,
	}, store, log)

	if err := mgr.Start(); err != nil {
		store.Close()
		log.Fatal().Err(err).Msg("failed to start server")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	if err := mgr.Stop(); err != nil {
		log.Error().Err(err).Msg("server stop failed")
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("storage close failed")
	}

	log.Info().Msg("exited")
}

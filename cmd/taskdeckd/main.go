// cmd/taskdeckd/main.go
//
// The task persistence service: a small CRUD API over a pluggable
// storage backend. Runs until interrupted, then drains.

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/server"
	"github.com/taskdeck/taskdeck/internal/server/storage"
)

func main() {
	configPath := flag.String("config", "", "path to the service config file")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Str("app", "taskdeckd").Logger()

	cfg, err := config.LoadService(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("close storage")
		}
	}()

	srv := server.New(cfg.Listen, repo, server.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start server")
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

func openRepository(ctx context.Context, cfg config.Service, logger zerolog.Logger) (storage.Repository, error) {
	switch cfg.Storage.Backend {
	case config.BackendNeo4j:
		logger.Info().Str("uri", cfg.Storage.Neo4j.URI).Msg("using neo4j storage")
		return storage.OpenNeo4j(ctx, cfg.Storage.Neo4j)
	default:
		logger.Info().Msg("using in-memory storage")
		return storage.NewMemory(), nil
	}
}

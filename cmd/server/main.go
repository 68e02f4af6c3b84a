package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/logging"
	"github.com/costomenu/reconcile/internal/pipeline"
	"github.com/costomenu/reconcile/internal/server"
	"github.com/costomenu/reconcile/internal/verified"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	verifiedSource, err := buildVerifiedSource(cfg, logger)
	if err != nil {
		logger.Error("failed to open verified source", zap.Error(err))
		os.Exit(1)
	}
	if verifiedSource != nil {
		defer func() {
			if err := verifiedSource.Close(); err != nil {
				logger.Warn("closing verified source failed", zap.Error(err))
			}
		}()
	}

	engine := pipeline.New(cfg, logger, verifiedSource)
	apiHandlers := server.NewAPIHandlers(logger, engine)

	// Seed the API with an initial run so the report endpoints are live
	// immediately; a failed startup run is not fatal, reruns stay possible.
	if res, err := engine.Run(ctx); err != nil {
		logger.Warn("startup reconciliation run failed", zap.Error(err))
	} else {
		apiHandlers.SetResult(res)
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildVerifiedSource prefers the live database when a DSN is configured
// and falls back to the CSV snapshot.
func buildVerifiedSource(cfg config.Config, logger *zap.Logger) (verified.Source, error) {
	if cfg.Database.DSN != "" {
		logger.Info("using postgres verified source", zap.String("table", cfg.Database.Table))
		return verified.NewPostgresSource(cfg.Database)
	}
	if cfg.Sources.VerifiedPath != "" {
		return verified.NewCSVSource(cfg.Sources.VerifiedPath), nil
	}
	return nil, nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

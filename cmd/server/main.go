// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/epimetrics/internal/api"
	"github.com/tomtom215/epimetrics/internal/assembler"
	"github.com/tomtom215/epimetrics/internal/auth"
	"github.com/tomtom215/epimetrics/internal/authz"
	"github.com/tomtom215/epimetrics/internal/cache"
	"github.com/tomtom215/epimetrics/internal/config"
	"github.com/tomtom215/epimetrics/internal/database"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/metrics"
	"github.com/tomtom215/epimetrics/internal/middleware"
	"github.com/tomtom215/epimetrics/internal/render"
	"github.com/tomtom215/epimetrics/internal/supervisor"
	"github.com/tomtom215/epimetrics/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Bool("auth_enabled", cfg.Security.AuthEnabled).
		Bool("allow_missing_is_public", cfg.Security.AllowMissingIsPublicField).
		Bool("renderer", cfg.Renderer.URL != "").
		Msg("Configuration loaded")

	if !cfg.Security.AuthEnabled {
		logging.Warn().Msg("AUTH_ENABLED=false: every caller can read every non-embargoed row")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedMockData {
		logging.Info().Msg("Mock data seeding enabled (SEED_MOCK_DATA=true)")
		if err := db.SeedMockData(context.Background()); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			logging.Fatal().Err(err).Msg("Failed to seed mock data")
		}
	}

	images := render.NewImageClient(&cfg.Renderer)
	asm := assembler.New(db, render.New(images, cfg.Charts), cfg.Trends)

	var responseCache *cache.Cache
	if cfg.Cache.Enabled {
		responseCache = cache.New(cfg.Cache.TTL, cache.DefaultCapacity)
	}

	perfMon := middleware.NewPerformanceMonitor(1000, middleware.DefaultSlowThreshold)
	handler := api.NewHandler(asm, db, api.HandlerOptions{
		Renderer:       images,
		PerfMon:        perfMon,
		Version:        version,
		RequestTimeout: cfg.Server.WorkerTimeout,
	})
	groups := auth.NewMiddleware(db, auth.Config{
		Settings: authz.Settings{
			AuthEnabled:          cfg.Security.AuthEnabled,
			AllowMissingIsPublic: cfg.Security.AllowMissingIsPublicField,
		},
		Header: cfg.Security.GroupHeader,
	})
	router := api.NewRouter(handler, groups, api.RouterOptions{
		ChiMiddleware: api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
		Cache:         responseCache,
		PerfMon:       perfMon,
	})
	server := services.NewHTTPServer(&cfg.Server, router.Setup())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMaintenanceService(services.NewUptimeService(start, 15*time.Second))
	if responseCache != nil {
		tree.AddMaintenanceService(responseCache)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// The channel yields exactly one value when the tree stops.
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

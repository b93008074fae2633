package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/softsso/internal/api"
	"github.com/edvin/softsso/internal/api/handler"
	"github.com/edvin/softsso/internal/config"
	"github.com/edvin/softsso/internal/connection"
	"github.com/edvin/softsso/internal/core"
	"github.com/edvin/softsso/internal/crypto"
	"github.com/edvin/softsso/internal/db"
	"github.com/edvin/softsso/internal/logging"
	"github.com/edvin/softsso/internal/metrics"
	"github.com/edvin/softsso/internal/softaculous"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if cfg.MigrateOnStart {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	key, err := crypto.DeriveKey(cfg.CredentialsKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid credentials key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to register pool metrics")
	}

	resolver := connection.NewResolver(pool, key, connection.PortPolicy{
		CPanel:      cfg.DefaultPortCPanel,
		DirectAdmin: cfg.DefaultPortDirectAdmin,
		Custom:      cfg.CustomPort,
	}, logger)

	timeouts := softaculous.DefaultTimeouts
	timeouts.Request = cfg.RequestTimeout
	timeouts.Heavy = cfg.HeavyRequestTimeout
	httpClient := softaculous.NewHTTPClient(timeouts.Connect)
	newClient := func(desc softaculous.Descriptor) handler.Backend {
		return softaculous.NewClient(desc,
			softaculous.WithHTTPClient(httpClient),
			softaculous.WithLogger(logger),
			softaculous.WithTimeouts(timeouts),
		)
	}

	srv := api.NewServer(logger, api.Deps{
		Resolver:  resolver,
		NewClient: newClient,
		Keys:      core.NewAPIKeyService(pool),
		AuditDB:   pool,
		DB:        pool,
		Gatherer:  prometheus.DefaultGatherer,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:        cfg.HTTPListenAddr,
		Handler:     srv,
		ReadTimeout: 60 * time.Second,
		// Installs and clones hold the request open for the whole backend call.
		WriteTimeout: cfg.HeavyRequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := metrics.NewServer(cfg.MetricsListenAddr, prometheus.DefaultGatherer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(httpServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/cepfinder/internal"
	"github.com/dukerupert/cepfinder/internal/bootstrap"
	"github.com/dukerupert/cepfinder/internal/cookie"
	"github.com/dukerupert/cepfinder/internal/handler"
	"github.com/dukerupert/cepfinder/internal/handler/finder"
	"github.com/dukerupert/cepfinder/internal/lookup"
	"github.com/dukerupert/cepfinder/internal/middleware"
	"github.com/dukerupert/cepfinder/internal/notify"
	"github.com/dukerupert/cepfinder/internal/router"
	"github.com/dukerupert/cepfinder/internal/routes"
	"github.com/dukerupert/cepfinder/internal/telemetry"
	"github.com/dukerupert/cepfinder/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	// Address store, ViaCEP client and service
	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("backend initialization failed: %w", err)
	}
	defer backend.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics("cepfinder", reg)
	lookupMetrics := telemetry.NewLookupMetrics("cepfinder", reg)

	// Notifications: every message is logged, counted and, when NATS is
	// configured, published. The session inbox is added per coordinator.
	shared := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg.NATS.URL != "" {
		conn, err := notify.ConnectNATS(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer conn.Drain()
		shared = append(shared, notify.NewNATSNotifier(conn, cfg.NATS.SubjectPrefix, logger))
		logger.Info("Publishing notifications to NATS", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}

	sessions, err := finder.NewSessions(func(id string, inbox *notify.Buffer) *lookup.Coordinator {
		targets := append([]notify.Notifier{inbox}, shared...)
		return lookup.New(backend.Service, lookup.Options{
			Notifier: lookupMetrics.CountNotifications(notify.Multi(targets...)),
			Logger:   logger,
			Observer: lookupMetrics,
			Timeout:  cfg.LookupTimeout,
		})
	}, finder.SessionsConfig{
		Capacity: cfg.SessionCapacity,
		Cookies:  cookie.NewConfig("", cfg.Env == "prod"),
		OnResize: func(n int) { lookupMetrics.ActiveSessions.Set(float64(n)) },
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}

	// Load templates with renderer
	renderer, err := handler.NewRenderer(web.Templates())
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "prod" {
		securityConfig.HSTSMaxAge = 31536000
	}

	rateConfig := middleware.DefaultRateLimiterConfig()
	rateConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	rateConfig.BurstSize = cfg.RateLimit.Burst
	apiRateLimiter, err := middleware.NewRateLimiter(rateConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		router.Recovery(logger),
		telemetry.SentryMiddleware(),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health: func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		},
		Metrics: httpMetrics.Handler(),
	})
	routes.RegisterFinderRoutes(r, routes.FinderDeps{
		Handler: finder.NewHandler(sessions, renderer),
		APIMiddleware: []router.Middleware{
			apiRateLimiter.Middleware,
			middleware.MaxBodySize(),
		},
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.LookupTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

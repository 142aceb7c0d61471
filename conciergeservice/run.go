package conciergeservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/api"
	"github.com/ab7289/dining-concierge/internal/config"
	"github.com/ab7289/dining-concierge/internal/dialog"
	"github.com/ab7289/dining-concierge/internal/health"
	"github.com/ab7289/dining-concierge/internal/logger"
	"github.com/ab7289/dining-concierge/internal/queue"
)

// Run starts the dialog webhook HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("concierge-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Str("dialog_time_zone", cfg.DialogTimeZone).
		Msg("Concierge service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	// Reservation queue (the only stateful dependency of the dialog service)
	q, err := newQueue(ctx, cfg, log)
	if err != nil {
		return err
	}

	validator, err := dialog.NewValidator(cfg.DialogTimeZone)
	if err != nil {
		log.Error().Stack().Err(err).Msg("dialog validator unavailable")
		return err
	}
	dispatcher := dialog.NewDispatcher(validator, q, log)
	router := api.NewRouter(dispatcher, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, q)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// newQueue opens the reservation queue and runs schema bootstrap in the
// background so startup stays fast.
func newQueue(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*queue.PGQueue, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("CONCIERGE_POSTGRES_DSN is required for the reservation queue")
	}
	db, err := queue.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error().Stack().Err(err).Msg("reservation queue unavailable")
		return nil, err
	}
	q := queue.New(db, queue.Config{
		BatchSize:   cfg.WorkerBatchSize,
		Interval:    cfg.WorkerPollInterval,
		DedupWindow: cfg.QueueDedupWindow,
	}, log)
	go func() {
		bootstrapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := q.Bootstrap(bootstrapCtx); err != nil {
			log.Warn().Err(err).Msg("queue bootstrap failed")
		} else {
			log.Debug().Msg("queue bootstrap completed")
		}
	}()
	return q, nil
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, q *queue.PGQueue) *health.ServiceHealthChecker {
	probeTimeout := cfg.HealthProbeTimeout
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	queueChecker := queue.NewQueueHealthChecker(q, log, probeTimeout)
	go queueChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, queueChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Health checkers start as unhealthy and need time to run their first check
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

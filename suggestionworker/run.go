package suggestionworker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/config"
	"github.com/ab7289/dining-concierge/internal/factory"
	"github.com/ab7289/dining-concierge/internal/health"
	"github.com/ab7289/dining-concierge/internal/logger"
	"github.com/ab7289/dining-concierge/internal/queue"
	"github.com/ab7289/dining-concierge/internal/searchindex"
	"github.com/ab7289/dining-concierge/internal/store"
	"github.com/ab7289/dining-concierge/internal/worker"
)

// Run starts the suggestion worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("suggestion-worker")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := queue.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("reservation queue open")
	}
	q := queue.New(db, queue.Config{
		BatchSize:   cfg.WorkerBatchSize,
		Interval:    cfg.WorkerPollInterval,
		DedupWindow: cfg.QueueDedupWindow,
	}, log)
	if err := q.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("reservation queue bootstrap")
	}

	idx, err := factory.NewSearchIndex(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("search index")
	}

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("restaurant store")
	}

	notifier, err := factory.NewNotifier(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("mail notifier")
	}

	// Gate consumption on dependency health so a misconfigured worker fails
	// fast instead of burning message attempts.
	if err := waitForDeps(ctx, cfg, log, q, st, idx); err != nil {
		log.Fatal().Err(err).Msg("startup health check")
	}

	suggester := worker.NewSuggester(idx, st, notifier, log)

	if err := q.Run(ctx, suggester); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("suggestion worker exit")
		return err
	}
	return nil
}

// waitForDeps starts component health checkers and blocks until all report
// healthy, or the startup window expires.
func waitForDeps(ctx context.Context, cfg *config.Config, log zerolog.Logger, q *queue.PGQueue, st store.Store, idx searchindex.Index) error {
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	queueChecker := queue.NewQueueHealthChecker(q, log, cfg.HealthProbeTimeout)
	go queueChecker.Start(ctx, interval)
	storeChecker := store.NewStoreHealthChecker(st, log, cfg.HealthProbeTimeout)
	go storeChecker.Start(ctx, interval)
	idxChecker := searchindex.NewSearchIndexHealthChecker(idx, log, cfg.HealthProbeTimeout)
	go idxChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, queueChecker, storeChecker, idxChecker)
	go svcHealth.Start(ctx, interval)

	deadline := time.Now().Add(time.Minute)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("dependencies not healthy within startup window")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

package mirrorworker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ab7289/dining-concierge/internal/config"
	"github.com/ab7289/dining-concierge/internal/factory"
	"github.com/ab7289/dining-concierge/internal/logger"
	"github.com/ab7289/dining-concierge/internal/mirror"
)

// Run starts the change-stream mirror worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("mirror-worker")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("restaurant store")
	}

	idx, err := factory.NewSearchIndex(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("search index")
	}

	m := mirror.New(st.Events(), idx, mirror.Config{
		BatchSize: cfg.WorkerBatchSize,
		Interval:  cfg.WorkerPollInterval,
	}, log)

	if err := m.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("mirror worker exit")
		return err
	}
	return nil
}

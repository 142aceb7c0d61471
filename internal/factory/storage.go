// Package factory builds configured adapters for the service entrypoints.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/config"
	storepkg "github.com/ab7289/dining-concierge/internal/store"
	storepg "github.com/ab7289/dining-concierge/internal/store/postgres"
	storelite "github.com/ab7289/dining-concierge/internal/store/sqlite"
)

// NewStore returns a store.Store for the configured driver. Postgres opens
// synchronously (health checks need the handle immediately) and runs schema
// bootstrap in the background; sqlite bootstraps inline.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("CONCIERGE_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		go func() {
			bootstrapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := storepg.Bootstrap(bootstrapCtx, db); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")
			}
		}()
		return storepg.NewWithDB(db), nil
	case "sqlite":
		return storelite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

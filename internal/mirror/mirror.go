// Package mirror replays restaurant store change events into the search
// index so the suggestion worker's term queries see every insert and delete.
package mirror

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/model"
	"github.com/ab7289/dining-concierge/internal/searchindex"
	"github.com/ab7289/dining-concierge/internal/store"
)

// Config controls batch size and polling cadence.
type Config struct {
	BatchSize int
	Interval  time.Duration
}

// Mirror applies leased change events to the search index one at a time.
// A failed apply is left leased; the store's backoff schedule redelivers it.
type Mirror struct {
	events store.Events
	index  searchindex.Index
	log    zerolog.Logger
	cfg    Config
}

// New constructs a Mirror from dependencies.
func New(events store.Events, idx searchindex.Index, cfg Config, log zerolog.Logger) *Mirror {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Mirror{events: events, index: idx, log: log, cfg: cfg}
}

// Run starts the polling loop until ctx is canceled.
func (m *Mirror) Run(ctx context.Context) error {
	m.log.Info().Int("batch", m.cfg.BatchSize).Dur("interval", m.cfg.Interval).Msg("mirror worker starting")
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("mirror worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := m.processOnce(ctx); err != nil {
				m.log.Error().Err(err).Msg("mirror processOnce")
			}
		}
	}
}

func (m *Mirror) processOnce(ctx context.Context) error {
	evs, err := m.events.Lease(ctx, m.cfg.BatchSize)
	if err != nil {
		return err
	}
	for _, ev := range evs {
		if err := m.apply(ctx, ev); err != nil {
			// Leave leased; the backoff schedule will redeliver.
			m.log.Warn().Err(err).Int64("seq", ev.SeqID).Str("kind", ev.Kind).Msg("mirror apply failed")
			continue
		}
		if err := m.events.MarkDone(ctx, ev.SeqID); err != nil {
			m.log.Error().Err(err).Int64("seq", ev.SeqID).Msg("markDone error")
		}
	}
	return nil
}

// apply translates one change event into an index write. Malformed events
// are dropped with a log, not retried.
func (m *Mirror) apply(ctx context.Context, ev *store.StoredEvent) error {
	if ev.ID == "" {
		m.log.Error().Int64("seq", ev.SeqID).Str("kind", ev.Kind).Msg("dropping event without restaurant id")
		return nil
	}
	switch ev.Kind {
	case model.EventInsert:
		return m.index.UpsertRestaurant(ctx, ev.ID, ev.Cuisine)
	case model.EventRemove:
		return m.index.DeleteRestaurant(ctx, ev.ID)
	default:
		m.log.Error().Int64("seq", ev.SeqID).Str("kind", ev.Kind).Msg("dropping event of unknown kind")
		return nil
	}
}

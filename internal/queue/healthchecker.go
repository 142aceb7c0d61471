package queue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/health"
)

// QueueHealthChecker monitors reservation queue reachability.
type QueueHealthChecker struct {
	pinger       health.HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewQueueHealthChecker creates a new queue health checker.
func NewQueueHealthChecker(pinger health.HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *QueueHealthChecker {
	hc := &QueueHealthChecker{pinger: pinger, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0) // start unhealthy until first successful probe
	return hc
}

func (hc *QueueHealthChecker) Name() string    { return "queue" }
func (hc *QueueHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

func (hc *QueueHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := hc.pinger.HealthPing(checkCtx); err != nil {
			hc.log.Error().Str("checker", hc.Name()).Err(err).Msg("queue health check failed")
			hc.healthy.Store(0)
			return
		}
		hc.healthy.Store(1)
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

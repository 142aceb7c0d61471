package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/model"
)

// SQL statements kept as constants for clarity and reuse
const (
	ddlSQL = `
CREATE TABLE IF NOT EXISTS reservation_queue (
    id              BIGSERIAL PRIMARY KEY,
    group_id        TEXT NOT NULL,
    dedupe_id       TEXT NOT NULL,
    body            TEXT NOT NULL DEFAULT '',
    attributes      JSONB NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INT NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    creation_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
    update_time     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS reservation_queue_dedupe_idx ON reservation_queue (dedupe_id);
CREATE INDEX IF NOT EXISTS reservation_queue_ready_idx ON reservation_queue (status, next_attempt_at);`

	// Exact resubmission of a dedupe token is silently dropped; fresh tokens
	// are minted per dialog turn so this only covers queue-level retries.
	insertSQL = `
INSERT INTO reservation_queue (group_id, dedupe_id, body, attributes)
VALUES ($1, $2, $3, $4)
ON CONFLICT (dedupe_id) DO NOTHING`

	// Lease ready rows oldest-first, never overtaking an earlier pending row
	// of the same group: ordering is strict within one conversation only.
	selectReadySQL = `
SELECT q.id, q.group_id, q.dedupe_id, q.body, q.attributes
FROM reservation_queue q
WHERE q.status = 'pending' AND q.next_attempt_at <= now()
  AND NOT EXISTS (
      SELECT 1 FROM reservation_queue p
      WHERE p.group_id = q.group_id AND p.status = 'pending' AND p.id < q.id
  )
ORDER BY q.id ASC
FOR UPDATE OF q SKIP LOCKED
LIMIT $1`

	markDoneSQL = `UPDATE reservation_queue SET status='done', update_time=now() WHERE id=$1`

	markFailedSQL = `
UPDATE reservation_queue
SET attempt_count = attempt_count + 1,
    next_attempt_at = now() + make_interval(secs => LEAST(POWER(2, attempt_count+1), 300)),
    update_time = now()
WHERE id=$1`

	// Done rows are kept for the dedup window so dedupe_id conflicts still
	// drop late resubmissions, then purged.
	purgeDoneSQL = `
DELETE FROM reservation_queue
WHERE status='done' AND update_time < now() - make_interval(secs => $1)`
)

// Config controls consumer batch size, polling cadence and how long
// acknowledged rows are retained for deduplication.
type Config struct {
	BatchSize   int
	Interval    time.Duration
	DedupWindow time.Duration
}

// PGQueue is the Postgres-backed reservation queue: producer side (Emit) and
// consumer side (Run) share one table.
type PGQueue struct {
	db  *sql.DB
	log zerolog.Logger
	cfg Config
}

// New constructs a PGQueue.
func New(db *sql.DB, cfg Config, log zerolog.Logger) *PGQueue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 5 * time.Minute
	}
	return &PGQueue{db: db, log: log, cfg: cfg}
}

// Bootstrap creates the queue table when missing. Safe to call repeatedly.
func (q *PGQueue) Bootstrap(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, ddlSQL)
	return err
}

// Emit writes one reservation request. Transport failure is surfaced as
// QueueUnavailableError and not retried here; redelivery is the queue's job,
// and the dialog turn must fail loudly instead of acknowledging a request
// that was never queued.
func (q *PGQueue) Emit(ctx context.Context, req *model.ReservationRequest) error {
	attrs, err := json.Marshal(EncodeAttributes(req))
	if err != nil {
		return &model.QueueUnavailableError{Err: err}
	}
	if _, err := q.db.ExecContext(ctx, insertSQL, req.GroupID, req.DedupeID, Body(req), attrs); err != nil {
		return &model.QueueUnavailableError{Err: err}
	}
	return nil
}

// Run polls for ready messages and hands them to proc until ctx is canceled.
func (q *PGQueue) Run(ctx context.Context, proc Processor) error {
	q.log.Info().Int("batch", q.cfg.BatchSize).Dur("interval", q.cfg.Interval).Msg("reservation consumer starting")
	ticker := time.NewTicker(q.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.log.Info().Msg("reservation consumer stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := q.processOnce(ctx, proc); err != nil {
				// Log and continue; per-row backoff prevents hot-looping
				q.log.Error().Err(err).Msg("reservation processOnce")
			}
		}
	}
}

func (q *PGQueue) processOnce(ctx context.Context, proc Processor) error {
	tx, err := q.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	msgs, err := q.leaseBatch(ctx, tx, q.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		if err := tx.Commit(); err != nil {
			return err
		}
		return q.purgeDone(ctx)
	}

	for _, m := range msgs {
		if err := proc.Process(ctx, m); err != nil {
			q.log.Warn().Err(err).Int64("id", m.ID).Str("group", m.GroupID).Msg("message processing failed")
			if e := q.markFailed(ctx, tx, m.ID); e != nil {
				q.log.Error().Err(e).Int64("id", m.ID).Msg("markFailed error")
			}
			continue
		}
		if e := q.markDone(ctx, tx, m.ID); e != nil {
			q.log.Error().Err(e).Int64("id", m.ID).Msg("markDone error")
		}
	}

	return tx.Commit()
}

// leaseBatch locks and returns up to batchSize ready messages.
func (q *PGQueue) leaseBatch(ctx context.Context, tx *sql.Tx, batchSize int) ([]*Message, error) {
	rows, err := tx.QueryContext(ctx, selectReadySQL, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		m := &Message{}
		var raw []byte
		if err := rows.Scan(&m.ID, &m.GroupID, &m.DedupeID, &m.Body, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &m.Attributes); err != nil {
			// Poison pill: back off so it cannot hot-loop
			_ = q.markFailed(ctx, tx, m.ID)
			q.log.Error().Int64("id", m.ID).Msg("bad message attributes")
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (q *PGQueue) markDone(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, markDoneSQL, id)
	return err
}

func (q *PGQueue) markFailed(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, markFailedSQL, id)
	return err
}

// purgeDone removes acknowledged rows older than the dedup window.
func (q *PGQueue) purgeDone(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, purgeDoneSQL, int64(q.cfg.DedupWindow.Seconds()))
	return err
}

// HealthPing implements health.HealthPinger.
func (q *PGQueue) HealthPing(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Open opens a Postgres connection with the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

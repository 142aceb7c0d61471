package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ab7289/dining-concierge/internal/model"
	"github.com/ab7289/dining-concierge/internal/store"
)

const ddlSQL = `
CREATE TABLE IF NOT EXISTS restaurants (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    display_address JSONB NOT NULL DEFAULT '[]',
    location        TEXT NOT NULL DEFAULT '',
    cuisine         TEXT NOT NULL DEFAULT '',
    rating          DOUBLE PRECISION NOT NULL DEFAULT 0,
    review_count    INT NOT NULL DEFAULT 0,
    inserted_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS restaurant_events (
    id              BIGSERIAL PRIMARY KEY,
    kind            TEXT NOT NULL,
    restaurant_id   TEXT NOT NULL,
    cuisine         TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INT NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    creation_time   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS restaurant_events_ready_idx ON restaurant_events (status, next_attempt_at);`

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
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

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

// Bootstrap creates the restaurant tables when missing. Safe to call repeatedly.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, ddlSQL)
	return err
}

type pgStore struct{ db *sql.DB }

func (s *pgStore) Restaurants() store.Restaurants { return &restaurants{db: s.db} }
func (s *pgStore) Events() store.Events           { return &events{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Restaurants ---

type restaurants struct{ db *sql.DB }

func (r *restaurants) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	var out model.Restaurant
	var addr []byte
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, display_address, location, cuisine, rating, review_count, inserted_at
        FROM restaurants WHERE id=$1
    `, id)
	err := row.Scan(&out.ID, &out.Name, &addr, &out.Location, &out.Cuisine, &out.Rating, &out.ReviewCount, &out.InsertedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addr, &out.DisplayAddress); err != nil {
		return nil, fmt.Errorf("restaurant %s: bad display address: %w", id, err)
	}
	return &out, nil
}

func (r *restaurants) PutBatch(ctx context.Context, batch []*model.Restaurant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, rest := range batch {
		addr, err := json.Marshal(rest.DisplayAddress)
		if err != nil {
			return fmt.Errorf("restaurant %s: marshal display address: %w", rest.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO restaurants (id, name, display_address, location, cuisine, rating, review_count, inserted_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            ON CONFLICT (id) DO UPDATE SET
                name=EXCLUDED.name, display_address=EXCLUDED.display_address,
                location=EXCLUDED.location, cuisine=EXCLUDED.cuisine,
                rating=EXCLUDED.rating, review_count=EXCLUDED.review_count
        `, rest.ID, rest.Name, addr, rest.Location, rest.Cuisine, rest.Rating, rest.ReviewCount, rest.InsertedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO restaurant_events (kind, restaurant_id, cuisine) VALUES ($1,$2,$3)
        `, model.EventInsert, rest.ID, rest.Cuisine); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *restaurants) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var cuisine string
	err = tx.QueryRowContext(ctx, `DELETE FROM restaurants WHERE id=$1 RETURNING cuisine`, id).Scan(&cuisine)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO restaurant_events (kind, restaurant_id, cuisine) VALUES ($1,$2,$3)
    `, model.EventRemove, id, cuisine); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Events ---

type events struct{ db *sql.DB }

func (e *events) Lease(ctx context.Context, limit int) ([]*store.StoredEvent, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
        SELECT id, kind, restaurant_id, cuisine
        FROM restaurant_events
        WHERE status='pending' AND next_attempt_at <= now()
        ORDER BY id ASC
        FOR UPDATE SKIP LOCKED
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*store.StoredEvent
	for rows.Next() {
		ev := &store.StoredEvent{}
		if err := rows.Scan(&ev.SeqID, &ev.Kind, &ev.ID, &ev.Cuisine); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Pre-schedule a backoff retry so a crashed worker redelivers.
	for _, ev := range out {
		if _, err := tx.ExecContext(ctx, `
            UPDATE restaurant_events
            SET attempt_count = attempt_count + 1,
                next_attempt_at = now() + make_interval(secs => LEAST(POWER(2, attempt_count+1), 300))
            WHERE id=$1
        `, ev.SeqID); err != nil {
			return nil, err
		}
	}
	return out, tx.Commit()
}

func (e *events) MarkDone(ctx context.Context, seqID int64) error {
	_, err := e.db.ExecContext(ctx, `UPDATE restaurant_events SET status='done' WHERE id=$1`, seqID)
	return err
}

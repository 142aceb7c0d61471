package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ab7289/dining-concierge/internal/model"
	"github.com/ab7289/dining-concierge/internal/store"
)

const ddlSQL = `
CREATE TABLE IF NOT EXISTS restaurants (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    display_address TEXT NOT NULL DEFAULT '[]',
    location        TEXT NOT NULL DEFAULT '',
    cuisine         TEXT NOT NULL DEFAULT '',
    rating          REAL NOT NULL DEFAULT 0,
    review_count    INTEGER NOT NULL DEFAULT 0,
    inserted_at     TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS restaurant_events (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    kind            TEXT NOT NULL,
    restaurant_id   TEXT NOT NULL,
    cuisine         TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMP NOT NULL,
    creation_time   TIMESTAMP NOT NULL
);`

// Open opens (or creates) a SQLite database at the given path with WAL mode.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a SQLite-backed store at path and creates the schema when missing.
// SQLite serves local development; production runs on Postgres.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires a store over an existing connection.
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(ddlSQL); err != nil {
		return nil, err
	}
	return &liteStore{db: db}, nil
}

type liteStore struct{ db *sql.DB }

func (s *liteStore) Restaurants() store.Restaurants { return &restaurants{db: s.db} }
func (s *liteStore) Events() store.Events           { return &events{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Restaurants ---

type restaurants struct{ db *sql.DB }

func (r *restaurants) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	var out model.Restaurant
	var addr []byte
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, display_address, location, cuisine, rating, review_count, inserted_at
        FROM restaurants WHERE id=?
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

	now := time.Now().UTC()
	for _, rest := range batch {
		addr, err := json.Marshal(rest.DisplayAddress)
		if err != nil {
			return fmt.Errorf("restaurant %s: marshal display address: %w", rest.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO restaurants (id, name, display_address, location, cuisine, rating, review_count, inserted_at)
            VALUES (?,?,?,?,?,?,?,?)
            ON CONFLICT (id) DO UPDATE SET
                name=excluded.name, display_address=excluded.display_address,
                location=excluded.location, cuisine=excluded.cuisine,
                rating=excluded.rating, review_count=excluded.review_count
        `, rest.ID, rest.Name, addr, rest.Location, rest.Cuisine, rest.Rating, rest.ReviewCount, rest.InsertedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO restaurant_events (kind, restaurant_id, cuisine, next_attempt_at, creation_time)
            VALUES (?,?,?,?,?)
        `, model.EventInsert, rest.ID, rest.Cuisine, now, now); err != nil {
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
	err = tx.QueryRowContext(ctx, `SELECT cuisine FROM restaurants WHERE id=?`, id).Scan(&cuisine)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM restaurants WHERE id=?`, id); err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO restaurant_events (kind, restaurant_id, cuisine, next_attempt_at, creation_time)
        VALUES (?,?,?,?,?)
    `, model.EventRemove, id, cuisine, now, now); err != nil {
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
        WHERE status='pending' AND next_attempt_at <= ?
        ORDER BY id ASC
        LIMIT ?
    `, time.Now().UTC(), limit)
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

	for _, ev := range out {
		backoff := time.Now().UTC().Add(30 * time.Second)
		if _, err := tx.ExecContext(ctx, `
            UPDATE restaurant_events SET attempt_count = attempt_count + 1, next_attempt_at = ? WHERE id=?
        `, backoff, ev.SeqID); err != nil {
			return nil, err
		}
	}
	return out, tx.Commit()
}

func (e *events) MarkDone(ctx context.Context, seqID int64) error {
	_, err := e.db.ExecContext(ctx, `UPDATE restaurant_events SET status='done' WHERE id=?`, seqID)
	return err
}

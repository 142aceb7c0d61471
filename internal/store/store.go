package store

import (
	"context"

	"github.com/ab7289/dining-concierge/internal/model"
)

// Store exposes persistence operations over the restaurant catalog.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Restaurants() Restaurants
	Events() Events
}

// Restaurants is the keyed restaurant catalog. Every write also records a
// change event in the same transaction; the mirror worker replays those
// events into the search index.
type Restaurants interface {
	// Get returns the restaurant with the given opaque id, or
	// model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.Restaurant, error)
	// PutBatch upserts a batch of restaurants and appends one insert event
	// per record.
	PutBatch(ctx context.Context, batch []*model.Restaurant) error
	// Delete removes a restaurant and appends a remove event.
	Delete(ctx context.Context, id string) error
}

// StoredEvent is a change event with its queue bookkeeping id.
type StoredEvent struct {
	SeqID int64
	model.RestaurantEvent
}

// Events is the change stream the mirror worker consumes. Lease returns
// ready events oldest-first and schedules an automatic retry for each, so a
// crashed worker redelivers after backoff; MarkDone acknowledges an applied
// event.
type Events interface {
	Lease(ctx context.Context, limit int) ([]*StoredEvent, error)
	MarkDone(ctx context.Context, seqID int64) error
}

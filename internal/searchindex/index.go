package searchindex

import "context"

// Index is the restaurant search index consumed by the suggestion worker and
// maintained by the change-stream mirror.
type Index interface {
	// SearchByCuisine runs an exact-term query against the indexed Cuisine
	// field and returns the matching restaurant ids in the index's native
	// order, plus the total hit count.
	SearchByCuisine(ctx context.Context, cuisine string) (ids []string, total int, err error)

	// UpsertRestaurant writes the index document for a restaurant.
	UpsertRestaurant(ctx context.Context, id, cuisine string) error

	// DeleteRestaurant removes the index document for a restaurant.
	DeleteRestaurant(ctx context.Context, id string) error
}

// HealthPinger is optionally implemented by an Index to expose specialized
// health check logic. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

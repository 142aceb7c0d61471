package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/model"
	"github.com/ab7289/dining-concierge/internal/store"
)

// batchSize is how many restaurants are persisted per store write.
const batchSize = 50

// retryDelay is how long a failed batch waits before its single retry.
const retryDelay = 30 * time.Second

// Ingester converts search results and loads them into the store.
type Ingester struct {
	client      *Client
	restaurants store.Restaurants
	log         zerolog.Logger
	now         func() time.Time
	sleep       func(time.Duration)
}

// NewIngester constructs an Ingester.
func NewIngester(client *Client, restaurants store.Restaurants, log zerolog.Logger) *Ingester {
	return &Ingester{
		client:      client,
		restaurants: restaurants,
		log:         log,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Run searches the business API and persists the results. It returns the
// number of restaurants written.
func (ing *Ingester) Run(ctx context.Context, location, cuisine string, limit int) (int, error) {
	businesses, err := ing.client.SearchBusinesses(ctx, location, cuisine, limit)
	if err != nil {
		return 0, err
	}
	ing.log.Info().Int("count", len(businesses)).
		Str("location", location).Str("cuisine", cuisine).
		Msg("retrieved businesses")

	records := ing.convert(businesses, location, cuisine)
	written := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		if err := ing.restaurants.PutBatch(ctx, batch); err != nil {
			// One retry after a pause, then give up on the run.
			ing.log.Warn().Err(err).Int("batch", start/batchSize).Msg("batch write failed, retrying")
			ing.sleep(retryDelay)
			if err := ing.restaurants.PutBatch(ctx, batch); err != nil {
				return written, err
			}
		}
		written += len(batch)
		ing.log.Info().Int("batch", start/batchSize).Int("written", written).Msg("batch written")
	}
	return written, nil
}

// convert stamps search results with the query's Location and Cuisine and
// an ingestion timestamp.
func (ing *Ingester) convert(businesses []Business, location, cuisine string) []*model.Restaurant {
	inserted := ing.now().UTC()
	out := make([]*model.Restaurant, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, &model.Restaurant{
			ID:             b.ID,
			Name:           b.Name,
			DisplayAddress: b.Location.DisplayAddress,
			Location:       location,
			Cuisine:        cuisine,
			Rating:         b.Rating,
			ReviewCount:    b.ReviewCount,
			InsertedAt:     inserted,
		})
	}
	return out
}

package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ab7289/dining-concierge/internal/model"
	"github.com/ab7289/dining-concierge/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore should return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	id1 := "r-" + uuid.New().String()
	id2 := "r-" + uuid.New().String()
	batch := []*model.Restaurant{
		{
			ID:             id1,
			Name:           "Da Andrea",
			DisplayAddress: []string{"35 W 13th St", "New York, NY 10011"},
			Location:       "New York",
			Cuisine:        "Italian",
			Rating:         4.5,
			ReviewCount:    1200,
			InsertedAt:     time.Now().UTC().Truncate(time.Second),
		},
		{
			ID:             id2,
			Name:           "Thai Villa",
			DisplayAddress: []string{"5 E 19th St", "New York, NY 10003"},
			Location:       "New York",
			Cuisine:        "Thai",
			InsertedAt:     time.Now().UTC().Truncate(time.Second),
		},
	}

	if err := s.Restaurants().PutBatch(ctx, batch); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}

	got, err := s.Restaurants().Get(ctx, id1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Da Andrea" || got.Cuisine != "Italian" {
		t.Fatalf("Get: unexpected record %+v", got)
	}
	if len(got.DisplayAddress) != 2 || got.DisplayAddress[0] != "35 W 13th St" {
		t.Fatalf("Get: display address %v", got.DisplayAddress)
	}

	if _, err := s.Restaurants().Get(ctx, "missing-"+uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	// Every put recorded an insert event, in write order.
	evs, err := s.Events().Lease(ctx, 10)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("Lease: want 2 insert events, got %d", len(evs))
	}
	if evs[0].Kind != model.EventInsert || evs[0].ID != id1 || evs[0].Cuisine != "Italian" {
		t.Fatalf("Lease: first event %+v", evs[0])
	}
	for _, ev := range evs {
		if err := s.Events().MarkDone(ctx, ev.SeqID); err != nil {
			t.Fatalf("MarkDone: %v", err)
		}
	}

	// Leased-and-done events are not redelivered.
	if evs, err = s.Events().Lease(ctx, 10); err != nil || len(evs) != 0 {
		t.Fatalf("Lease after done: n=%d err=%v", len(evs), err)
	}

	// Upsert keeps the id stable and updates fields.
	batch[0].Rating = 4.8
	if err := s.Restaurants().PutBatch(ctx, batch[:1]); err != nil {
		t.Fatalf("PutBatch upsert: %v", err)
	}
	if got, err = s.Restaurants().Get(ctx, id1); err != nil || got.Rating != 4.8 {
		t.Fatalf("Get after upsert: rating=%v err=%v", got.Rating, err)
	}

	// Delete records a remove event carrying the cuisine.
	if err := s.Restaurants().Delete(ctx, id2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Restaurants().Get(ctx, id2); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get deleted: want ErrNotFound, got %v", err)
	}
	evs, err = s.Events().Lease(ctx, 10)
	if err != nil {
		t.Fatalf("Lease after delete: %v", err)
	}
	var sawRemove bool
	for _, ev := range evs {
		if ev.Kind == model.EventRemove && ev.ID == id2 && ev.Cuisine == "Thai" {
			sawRemove = true
		}
	}
	if !sawRemove {
		t.Fatalf("expected remove event for %s, got %+v", id2, evs)
	}

	if err := s.Restaurants().Delete(ctx, id2); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete missing: want ErrNotFound, got %v", err)
	}
}

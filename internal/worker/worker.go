// Package worker resolves queued reservation requests into restaurant
// suggestions and hands them to the notifier.
package worker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/model"
	"github.com/ab7289/dining-concierge/internal/notify"
	"github.com/ab7289/dining-concierge/internal/queue"
	"github.com/ab7289/dining-concierge/internal/searchindex"
	"github.com/ab7289/dining-concierge/internal/store"
)

// Suggester processes one queued reservation request per invocation: term
// query by cuisine, resolve the top hit against the restaurant store, then
// notify. A missing match degrades to the apology path; only a notification
// delivery failure propagates, leaving the message subject to redelivery.
type Suggester struct {
	index    searchindex.Index
	store    store.Store
	notifier notify.Notifier
	log      zerolog.Logger
}

// NewSuggester constructs a Suggester from its dependencies.
func NewSuggester(idx searchindex.Index, st store.Store, n notify.Notifier, log zerolog.Logger) *Suggester {
	return &Suggester{index: idx, store: st, notifier: n, log: log}
}

// Process implements queue.Processor.
//
// Re-processing the same message after a crash re-sends an email; that is an
// accepted at-least-once side effect.
func (s *Suggester) Process(ctx context.Context, msg *queue.Message) error {
	req, err := queue.DecodeRequest(msg)
	if err != nil {
		return err
	}

	ids, total, err := s.index.SearchByCuisine(ctx, req.Cuisine)
	if err != nil {
		// Search unavailable is a business outcome for the diner, not a
		// crash: apologize and acknowledge the message.
		s.log.Warn().Err(err).Str("cuisine", req.Cuisine).Msg("search index query failed")
		return s.apologize(ctx, msg, req)
	}
	if total == 0 || len(ids) == 0 {
		s.log.Info().Str("cuisine", req.Cuisine).Msg("no restaurants indexed for cuisine")
		return s.apologize(ctx, msg, req)
	}

	topID := ids[0]
	restaurant, err := s.store.Restaurants().Get(ctx, topID)
	if err != nil {
		s.log.Warn().Err(err).Str("restaurant_id", topID).Msg("top hit not resolvable in store")
		return s.apologize(ctx, msg, req)
	}

	msgID, err := s.notifier.SendSuggestion(ctx, restaurant, req)
	if err != nil {
		return err
	}
	s.log.Info().
		Int64("queue_id", msg.ID).
		Str("group", msg.GroupID).
		Str("restaurant_id", restaurant.ID).
		Str("message_id", msgID).
		Msg("suggestion delivered")
	return nil
}

func (s *Suggester) apologize(ctx context.Context, msg *queue.Message, req *model.ReservationRequest) error {
	msgID, err := s.notifier.SendApology(ctx, req)
	if err != nil {
		return err
	}
	s.log.Info().
		Int64("queue_id", msg.ID).
		Str("group", msg.GroupID).
		Str("message_id", msgID).
		Msg("apology delivered")
	return nil
}

package notify

import (
	"context"
	"fmt"

	"github.com/ab7289/dining-concierge/internal/model"
)

// Notifier sends the single-recipient suggestion and apology emails.
// Exactly one email is sent per invocation; a transport rejection surfaces as
// model.DeliveryError and is never retried here.
type Notifier interface {
	SendSuggestion(ctx context.Context, restaurant *model.Restaurant, req *model.ReservationRequest) (messageID string, err error)
	SendApology(ctx context.Context, req *model.ReservationRequest) (messageID string, err error)
}

// suggestionBody renders the fixed-format suggestion email.
func suggestionBody(restaurant *model.Restaurant, req *model.ReservationRequest) string {
	address := ""
	if len(restaurant.DisplayAddress) > 0 {
		address = restaurant.DisplayAddress[0]
	}
	return fmt.Sprintf(
		"Hello! Here are my %s restaurant suggestions for %d people, for %s at %s: %s, located at %s.\n"+
			"Hope you enjoy the suggestions!",
		req.Cuisine, req.PartySize, req.Date, req.Time, restaurant.Name, address)
}

// apologyBody renders the fixed-format no-match email.
func apologyBody(req *model.ReservationRequest) string {
	return fmt.Sprintf(
		"Hi there, unfortunately we don't appear to have any suggestions for %s in %s, "+
			"for %d guests on %s at %s. Please try again when more restaurants have been indexed.",
		req.Cuisine, req.Location, req.PartySize, req.Date, req.Time)
}

package dialog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/model"
)

// Intent names recognized by the concierge.
const (
	IntentGreeting          = "GreetingIntent"
	IntentThankYou          = "ThankYouIntent"
	IntentDiningSuggestion  = "DiningSuggestionIntent"
	greetingMessage         = "Hi there, how can I help you?"
	thankYouMessage         = "Thanks for chatting with me!"
	fulfillmentReadyMessage = "Thanks, you're all set! You should receive my suggestions via SMS or email in a few minutes!"
)

// Emitter hands a completed reservation request to the fulfillment queue.
type Emitter interface {
	Emit(ctx context.Context, req *model.ReservationRequest) error
}

// Dispatcher routes inbound dialog turns to intent handlers. It holds no
// conversation state; everything it needs arrives in the turn payload.
type Dispatcher struct {
	validator *Validator
	emitter   Emitter
	log       zerolog.Logger
}

// NewDispatcher constructs a Dispatcher from its dependencies.
func NewDispatcher(v *Validator, e Emitter, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{validator: v, emitter: e, log: log}
}

// Dispatch handles one turn and returns the directive for the runtime.
// Unknown intents return *model.UnsupportedIntentError; no directive is
// produced for them.
func (d *Dispatcher) Dispatch(ctx context.Context, turn *model.DialogTurn) (model.DialogDirective, error) {
	d.log.Debug().
		Str("intent", turn.IntentName).
		Str("source", string(turn.InvocationSource)).
		Str("request_id", turn.RequestID).
		Msg("dispatching dialog turn")

	attrs := turn.SessionAttributes
	if attrs == nil {
		attrs = map[string]string{}
	}

	switch turn.IntentName {
	case IntentGreeting:
		return Close(attrs, turn.IntentName, greetingMessage), nil
	case IntentThankYou:
		return Close(attrs, turn.IntentName, thankYouMessage), nil
	case IntentDiningSuggestion:
		return d.handleDining(ctx, turn, attrs)
	default:
		return model.DialogDirective{}, &model.UnsupportedIntentError{IntentName: turn.IntentName}
	}
}

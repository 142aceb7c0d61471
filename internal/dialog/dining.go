package dialog

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/ab7289/dining-concierge/internal/model"
)

// handleDining drives the dining suggestion state machine.
//
// While the runtime is still collecting slots (DialogCodeHook), every present
// slot is validated; the first violation clears that slot and re-elicits it,
// preserving all other collected values. Once all slots validate, control is
// delegated back to the runtime.
//
// On fulfillment (FulfillmentCodeHook) all slots are present and valid. The
// reservation request is queued before the closing message is returned; if
// the enqueue fails the turn fails loudly, so the user is never told a
// request succeeded that was never queued.
func (d *Dispatcher) handleDining(ctx context.Context, turn *model.DialogTurn, attrs map[string]string) (model.DialogDirective, error) {
	if turn.InvocationSource == model.SourceDialog {
		verdict := d.validator.Validate(turn.Slots)
		if !verdict.Valid {
			cleared := turn.Slots.WithCleared(verdict.ViolatedSlot)
			return ElicitSlot(attrs, turn.IntentName, cleared, verdict.ViolatedSlot, verdict.Message), nil
		}
		return Delegate(attrs, turn.IntentName, turn.Slots), nil
	}

	req := reservationFromSlots(turn.Slots, turn.RequestID)
	if err := d.emitter.Emit(ctx, req); err != nil {
		d.log.Error().Err(err).Str("request_id", turn.RequestID).Msg("reservation enqueue failed")
		return model.DialogDirective{}, err
	}

	d.log.Info().
		Str("request_id", turn.RequestID).
		Str("cuisine", req.Cuisine).
		Str("location", req.Location).
		Msg("reservation request queued")

	return Close(attrs, turn.IntentName, fulfillmentReadyMessage), nil
}

// reservationFromSlots builds the queued request from a completed slot set.
// The group id is the turn's correlation id; the dedupe token is fresh per
// enqueue so identical requests from distinct turns are never collapsed.
func reservationFromSlots(slots model.Slots, requestID string) *model.ReservationRequest {
	partySize, _ := strconv.Atoi(slots.Count.Value())
	return &model.ReservationRequest{
		Location:  slots.Location.Value(),
		Cuisine:   slots.Cuisine.Value(),
		Date:      slots.Date.Value(),
		Time:      slots.Time.Value(),
		PartySize: partySize,
		Phone:     slots.Phone.Value(),
		Email:     slots.Email.Value(),
		GroupID:   requestID,
		DedupeID:  uuid.New().String(),
	}
}

package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/model"
)

type mockEmitter struct {
	calls int
	last  *model.ReservationRequest
	err   error
}

func (m *mockEmitter) Emit(ctx context.Context, req *model.ReservationRequest) error {
	m.calls++
	m.last = req
	return m.err
}

func newTestDispatcher(t *testing.T, em *mockEmitter) *Dispatcher {
	t.Helper()
	return NewDispatcher(newTestValidator(t), em, zerolog.Nop())
}

func TestDispatch_Greeting(t *testing.T) {
	d := newTestDispatcher(t, &mockEmitter{})
	dir, err := d.Dispatch(context.Background(), &model.DialogTurn{IntentName: IntentGreeting})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if dir.DialogAction.Type != model.ActionClose {
		t.Fatalf("type = %q, want Close", dir.DialogAction.Type)
	}
	if dir.DialogAction.Message.Content != "Hi there, how can I help you?" {
		t.Fatalf("message = %q", dir.DialogAction.Message.Content)
	}
}

func TestDispatch_ThankYouClosesNormally(t *testing.T) {
	d := newTestDispatcher(t, &mockEmitter{})
	dir, err := d.Dispatch(context.Background(), &model.DialogTurn{IntentName: IntentThankYou})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if dir.DialogAction.Type != model.ActionClose || dir.DialogAction.FulfillmentState != model.FulfillmentStateFulfilled {
		t.Fatalf("unexpected directive %+v", dir.DialogAction)
	}
}

func TestDispatch_UnsupportedIntent(t *testing.T) {
	d := newTestDispatcher(t, &mockEmitter{})
	_, err := d.Dispatch(context.Background(), &model.DialogTurn{IntentName: "BookFlightIntent"})
	var uie *model.UnsupportedIntentError
	if !errors.As(err, &uie) {
		t.Fatalf("expected UnsupportedIntentError, got %v", err)
	}
	if uie.IntentName != "BookFlightIntent" {
		t.Fatalf("error names %q", uie.IntentName)
	}
}

func TestDispatch_DiningInvalidSlotReElicited(t *testing.T) {
	em := &mockEmitter{}
	d := newTestDispatcher(t, em)
	turn := &model.DialogTurn{
		IntentName:       IntentDiningSuggestion,
		InvocationSource: model.SourceDialog,
		Slots: model.Slots{
			Location: slot("Paris"),
			Cuisine:  slot("Italian"),
		},
	}

	dir, err := d.Dispatch(context.Background(), turn)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if dir.DialogAction.Type != model.ActionElicitSlot {
		t.Fatalf("type = %q, want ElicitSlot", dir.DialogAction.Type)
	}
	if dir.DialogAction.SlotToElicit != model.SlotLocation {
		t.Fatalf("slot to elicit = %q", dir.DialogAction.SlotToElicit)
	}
	if dir.DialogAction.Slots.Location != nil {
		t.Fatal("violating slot must be cleared in the echoed snapshot")
	}
	if dir.DialogAction.Slots.Cuisine.Value() != "Italian" {
		t.Fatal("other collected slots must be preserved")
	}
	// Input turn is not mutated.
	if turn.Slots.Location == nil {
		t.Fatal("dispatch must not mutate the inbound turn")
	}
	if em.calls != 0 {
		t.Fatal("no emission during slot elicitation")
	}
}

func TestDispatch_DiningValidSlotsDelegate(t *testing.T) {
	d := newTestDispatcher(t, &mockEmitter{})
	dir, err := d.Dispatch(context.Background(), &model.DialogTurn{
		IntentName:       IntentDiningSuggestion,
		InvocationSource: model.SourceDialog,
		Slots:            model.Slots{Location: slot("Seattle"), Cuisine: slot("Thai")},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if dir.DialogAction.Type != model.ActionDelegate {
		t.Fatalf("type = %q, want Delegate", dir.DialogAction.Type)
	}
}

func fullDiningTurn(requestID string) *model.DialogTurn {
	return &model.DialogTurn{
		IntentName:       IntentDiningSuggestion,
		InvocationSource: model.SourceFulfillment,
		RequestID:        requestID,
		SessionAttributes: map[string]string{
			"sessionId": "s-1",
		},
		Slots: model.Slots{
			Location: slot("New York"),
			Cuisine:  slot("Italian"),
			Date:     slot("2026-09-02"),
			Time:     slot("19:00"),
			Count:    slot("4"),
			Phone:    slot("5551234567"),
			Email:    slot("diner@example.com"),
		},
	}
}

func TestDispatch_FulfillmentEmitsAndCloses(t *testing.T) {
	em := &mockEmitter{}
	d := newTestDispatcher(t, em)

	dir, err := d.Dispatch(context.Background(), fullDiningTurn("req-42"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if em.calls != 1 {
		t.Fatalf("emit calls = %d, want 1", em.calls)
	}
	req := em.last
	if req.GroupID != "req-42" {
		t.Fatalf("group id = %q, want turn correlation id", req.GroupID)
	}
	if req.DedupeID == "" {
		t.Fatal("dedupe id must be freshly generated")
	}
	if req.Location != "New York" || req.Cuisine != "Italian" || req.PartySize != 4 {
		t.Fatalf("request fields mismatch: %+v", req)
	}
	if dir.DialogAction.Type != model.ActionClose {
		t.Fatalf("type = %q, want Close", dir.DialogAction.Type)
	}
	if dir.DialogAction.Message.Content != fulfillmentReadyMessage {
		t.Fatalf("message = %q", dir.DialogAction.Message.Content)
	}
}

func TestDispatch_FulfillmentFreshDedupePerTurn(t *testing.T) {
	em := &mockEmitter{}
	d := newTestDispatcher(t, em)

	if _, err := d.Dispatch(context.Background(), fullDiningTurn("req-1")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	first := em.last.DedupeID
	if _, err := d.Dispatch(context.Background(), fullDiningTurn("req-1")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if em.last.DedupeID == first {
		t.Fatal("logically identical turns must get distinct dedupe tokens")
	}
}

func TestDispatch_FulfillmentEmitFailurePropagates(t *testing.T) {
	em := &mockEmitter{err: &model.QueueUnavailableError{Err: errors.New("connection refused")}}
	d := newTestDispatcher(t, em)

	_, err := d.Dispatch(context.Background(), fullDiningTurn("req-9"))
	var qe *model.QueueUnavailableError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QueueUnavailableError, got %v", err)
	}
}

package model

import "time"

// InvocationSource tells the dialog engine which phase of the conversation
// the runtime is in for this turn.
type InvocationSource string

const (
	// SourceDialog is sent on every turn while slots are still being collected.
	SourceDialog InvocationSource = "DialogCodeHook"
	// SourceFulfillment is sent once the runtime has filled every required slot.
	SourceFulfillment InvocationSource = "FulfillmentCodeHook"
)

// SlotValue is a single collected slot as the dialog runtime reports it:
// the user's literal words plus the runtime's resolved interpretation.
type SlotValue struct {
	Raw         string `json:"rawValue"`
	Interpreted string `json:"interpretedValue"`
}

// Value returns the interpreted value of a slot, or "" when unset.
func (s *SlotValue) Value() string {
	if s == nil {
		return ""
	}
	if s.Interpreted != "" {
		return s.Interpreted
	}
	return s.Raw
}

// Slot names as the dialog runtime spells them.
const (
	SlotLocation = "Location"
	SlotCuisine  = "Cuisine"
	SlotDate     = "date"
	SlotTime     = "time"
	SlotCount    = "count"
	SlotPhone    = "phone"
	SlotEmail    = "email"
)

// Slots is the fixed record of everything the dining flow collects.
// A nil field means the slot has not been elicited yet.
type Slots struct {
	Location *SlotValue `json:"Location,omitempty"`
	Cuisine  *SlotValue `json:"Cuisine,omitempty"`
	Date     *SlotValue `json:"date,omitempty"`
	Time     *SlotValue `json:"time,omitempty"`
	Count    *SlotValue `json:"count,omitempty"`
	Phone    *SlotValue `json:"phone,omitempty"`
	Email    *SlotValue `json:"email,omitempty"`
}

// WithCleared returns a copy of the slot set with the named slot unset.
// The receiver is not modified; turns are treated as immutable inputs.
func (s Slots) WithCleared(name string) Slots {
	out := s
	switch name {
	case SlotLocation:
		out.Location = nil
	case SlotCuisine:
		out.Cuisine = nil
	case SlotDate:
		out.Date = nil
	case SlotTime:
		out.Time = nil
	case SlotCount:
		out.Count = nil
	case SlotPhone:
		out.Phone = nil
	case SlotEmail:
		out.Email = nil
	}
	return out
}

// DialogTurn is one inbound request from the dialog runtime. It is never
// persisted; all conversation state lives in Slots and SessionAttributes,
// which the runtime replays on every turn.
type DialogTurn struct {
	InvocationSource  InvocationSource  `json:"invocationSource"`
	IntentName        string            `json:"intentName"`
	Slots             Slots             `json:"slots"`
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
	RequestID         string            `json:"requestId"`
}

// ValidationVerdict is the outcome of validating a slot set.
// When Valid is false, exactly one slot is named and Message is non-empty.
type ValidationVerdict struct {
	Valid        bool   `json:"isValid"`
	ViolatedSlot string `json:"violatedSlot,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Directive action types understood by the dialog runtime.
const (
	ActionElicitSlot    = "ElicitSlot"
	ActionConfirmIntent = "ConfirmIntent"
	ActionDelegate      = "Delegate"
	ActionClose         = "Close"
)

// FulfillmentStateFulfilled is the only terminal state Close directives carry.
const FulfillmentStateFulfilled = "Fulfilled"

// Message is a plain-text message for the user, in the envelope shape the
// dialog runtime expects.
type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// PlainText wraps content in the runtime's message envelope.
func PlainText(content string) *Message {
	return &Message{ContentType: "PlainText", Content: content}
}

// DialogAction is the inner decision of a directive.
type DialogAction struct {
	Type             string   `json:"type"`
	IntentName       string   `json:"intentName,omitempty"`
	Slots            *Slots   `json:"slots,omitempty"`
	SlotToElicit     string   `json:"slotToElicit,omitempty"`
	FulfillmentState string   `json:"fulfillmentState,omitempty"`
	Message          *Message `json:"message,omitempty"`
}

// DialogDirective is the engine's outbound decision for one turn: exactly one
// of ElicitSlot, ConfirmIntent, Delegate or Close.
type DialogDirective struct {
	SessionAttributes map[string]string `json:"sessionAttributes"`
	DialogAction      DialogAction      `json:"dialogAction"`
}

// ReservationRequest is the fully-validated output of a completed dialog,
// queued once for asynchronous fulfillment and never mutated afterwards.
type ReservationRequest struct {
	Location  string `json:"location"`
	Cuisine   string `json:"cuisine"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"partySize"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`

	// GroupID ties the request to its originating conversation; the queue
	// orders messages strictly within one group only.
	GroupID string `json:"groupId"`
	// DedupeID is a fresh token per enqueue, so logically identical requests
	// from distinct turns are never collapsed.
	DedupeID string `json:"dedupeId"`
}

// Restaurant is a record in the restaurant store, keyed by an opaque ID
// assigned at ingestion time and stable across updates.
type Restaurant struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DisplayAddress []string  `json:"displayAddress"`
	Location       string    `json:"location"`
	Cuisine        string    `json:"cuisine"`
	Rating         float64   `json:"rating,omitempty"`
	ReviewCount    int       `json:"reviewCount,omitempty"`
	InsertedAt     time.Time `json:"insertedAt"`
}

// RestaurantEvent mirrors a store insert or removal into the search index.
type RestaurantEvent struct {
	Kind    string `json:"kind"` // "insert" or "remove"
	ID      string `json:"id"`
	Cuisine string `json:"cuisine"`
}

// Restaurant event kinds.
const (
	EventInsert = "insert"
	EventRemove = "remove"
)

package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// UnsupportedIntentError is returned by the dispatcher when the runtime sends
// an intent the engine does not implement. Fatal for the turn.
type UnsupportedIntentError struct {
	IntentName string
}

func (e *UnsupportedIntentError) Error() string {
	return fmt.Sprintf("intent with name %s not supported", e.IntentName)
}

// QueueUnavailableError wraps a transport failure while emitting a
// reservation request. The turn fails loudly; the user must not be told the
// request succeeded.
type QueueUnavailableError struct {
	Err error
}

func (e *QueueUnavailableError) Error() string {
	return fmt.Sprintf("reservation queue unavailable: %v", e.Err)
}

func (e *QueueUnavailableError) Unwrap() error { return e.Err }

// DeliveryError wraps an email transport rejection. Propagated so the queued
// message stays unacknowledged and subject to redelivery.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

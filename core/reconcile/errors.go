package reconcile

import (
	"errors"

	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/docstore"
)

var (
	// ErrMissingField reports a required key field that is absent or empty.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidPayload reports a payload that fails a structural precondition.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrUnregisteredQueue reports a queue with no handler.
	ErrUnregisteredQueue = errors.New("unregistered queue")
)

// Outcome classifies the result of dispatching one delivery.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeInvalidAmount     Outcome = "invalid_amount"
	OutcomeMissingField      Outcome = "missing_field"
	OutcomeInvalidPayload    Outcome = "invalid_payload"
	OutcomeStoreUnavailable  Outcome = "store_unavailable"
	OutcomeStoreWriteFailed  Outcome = "store_write_failed"
	OutcomeUnregisteredQueue Outcome = "unregistered_queue"
	OutcomeFailed            Outcome = "failed"
)

// Classify maps an error returned by Dispatch onto an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, amount.ErrInvalidAmount):
		return OutcomeInvalidAmount
	case errors.Is(err, ErrMissingField):
		return OutcomeMissingField
	case errors.Is(err, ErrInvalidPayload):
		return OutcomeInvalidPayload
	case errors.Is(err, docstore.ErrUnavailable):
		return OutcomeStoreUnavailable
	case errors.Is(err, docstore.ErrWriteFailed):
		return OutcomeStoreWriteFailed
	case errors.Is(err, ErrUnregisteredQueue):
		return OutcomeUnregisteredQueue
	default:
		return OutcomeFailed
	}
}

// IsRejection reports whether err rejects the event itself, as opposed to a
// collaborator failure that redelivery may cure.
func IsRejection(err error) bool {
	switch Classify(err) {
	case OutcomeInvalidAmount, OutcomeMissingField, OutcomeInvalidPayload:
		return true
	default:
		return false
	}
}

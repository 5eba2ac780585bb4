package registry

import (
	"errors"

	"github.com/kirinyoku/tix-events/internal/service/ledger"
)

var (
	ErrAttendeeNotFound = errors.New("Attendee not found")

	// ErrInvalidQuantity also matches ledger.ErrInvalidArgument.
	ErrInvalidQuantity error = ledger.InvalidArgumentError{Reason: "quantity must be >= 1"}
)

func emptyField(name string) error {
	return ledger.InvalidArgumentError{Reason: name + " must not be empty"}
}

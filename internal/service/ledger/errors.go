package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound        = errors.New("Event not found")
	ErrSoldOut              = errors.New("Event is sold out")
	ErrInsufficientCapacity = errors.New("Not enough tickets available")
	ErrInvariantViolation   = errors.New("capacity cannot be less than tickets sold")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrConflict             = errors.New("concurrent update, please retry")
)

// InvalidArgumentError describes a rejected input. It matches
// ErrInvalidArgument with errors.Is.
type InvalidArgumentError struct {
	Reason string
}

func (e InvalidArgumentError) Error() string {
	return e.Reason
}

func (e InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalid(format string, args ...any) error {
	return InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

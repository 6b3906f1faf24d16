package history

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an event id does not exist.
	ErrNotFound = errors.New("event not found")

	// ErrInvalidEvent is returned when an event fails validation before
	// anything is written.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrPersistence matches every *PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError reports that the store could not durably complete an
// operation. For appends it means the event was not recorded.
type PersistenceError struct {
	// Op names the failed step, e.g. "append: commit".
	Op string

	// Err is the underlying database error.
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistence) true for any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsPersistenceError returns true if err is or wraps a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

package naming

import "errors"

var (
	// ErrNoVersionToken is returned when a filename has no trailing numeric
	// token. Callers usually fall back to AppendInitialToken.
	ErrNoVersionToken = errors.New("no version token")

	// ErrVersionSpaceExhausted is returned when the collision loop runs out
	// of attempts before finding a free name.
	ErrVersionSpaceExhausted = errors.New("version space exhausted")

	// ErrInvalidAssignment is returned when assignment fields cannot form a
	// valid generated name.
	ErrInvalidAssignment = errors.New("invalid assignment")
)

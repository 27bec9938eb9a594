package config

import "errors"

var (
	// ErrNilPointer is returned when Load receives a nil config pointer.
	ErrNilPointer = errors.New("config: nil pointer")

	// ErrParse wraps env parsing failures (missing required variables,
	// unparsable values).
	ErrParse = errors.New("config: failed to parse environment")
)

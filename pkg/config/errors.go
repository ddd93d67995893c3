package config

import "errors"

var (
	// ErrNilPointer is returned when Load receives a nil destination.
	ErrNilPointer = errors.New("config: nil pointer passed to Load")
	// ErrParsingConfig wraps env tag parsing failures.
	ErrParsingConfig = errors.New("config: failed to parse environment variables")
)

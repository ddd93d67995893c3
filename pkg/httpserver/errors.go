package httpserver

import "errors"

var (
	// ErrStart wraps listener and startup failures.
	ErrStart = errors.New("httpserver: failed to start server")
	// ErrShutdown wraps graceful shutdown failures.
	ErrShutdown = errors.New("httpserver: failed to shut down gracefully")
)

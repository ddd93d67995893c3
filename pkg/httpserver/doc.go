// Package httpserver wraps http.Server with env-driven configuration,
// graceful shutdown on context cancellation or SIGINT/SIGTERM, and a
// healthcheck handler for liveness and readiness probes.
package httpserver

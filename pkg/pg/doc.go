// Package pg provides PostgreSQL infrastructure: pooled connections with
// startup retry, goose migrations over pgx, error classification helpers and
// a readiness probe.
package pg

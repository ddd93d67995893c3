// Package redis provides a ping-verified go-redis client constructor with
// startup retry. The service uses redis as a read-through cache for tenant
// app credential lookups.
package redis

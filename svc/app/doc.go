// Package app manages tenant apps and their credentials. The Gate is the
// authentication boundary in front of the fan-out engine: it resolves a
// public id + secret key pair to an active app, failing closed with one
// uniform error for any mismatch.
package app

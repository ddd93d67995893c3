package app

import "errors"

var (
	// ErrInvalidCredentials is the single uniform authentication failure:
	// unknown public id, wrong secret and inactive app are indistinguishable
	// to the caller so the gate leaks nothing about which check failed.
	ErrInvalidCredentials = errors.New("app: invalid app credentials")

	// ErrAppNotFound is returned by storage lookups for missing apps.
	ErrAppNotFound = errors.New("app: not found")

	// ErrAppNameTaken is returned when creating an app with a name that
	// already exists.
	ErrAppNameTaken = errors.New("app: name already taken")
)

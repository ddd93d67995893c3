package device

import "errors"

var (
	// ErrEmptyExternalUserID is returned when a registration call omits the
	// tenant-side user identifier.
	ErrEmptyExternalUserID = errors.New("device: external user id is required")
)

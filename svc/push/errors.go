package push

import "errors"

var (
	// ErrInvalidPayload rejects a payload before any record is written.
	ErrInvalidPayload = errors.New("push: notification payload requires a title")

	// ErrNotificationNotStored is fatal to the send call: without the
	// notification record there is nothing to audit deliveries against,
	// so no delivery is attempted.
	ErrNotificationNotStored = errors.New("push: failed to store notification record")

	// ErrResolveTargets is fatal to the send call: the recipient set could
	// not be determined.
	ErrResolveTargets = errors.New("push: failed to resolve target devices")

	// ErrNotificationNotFound is returned when a notification does not exist
	// or belongs to a different app.
	ErrNotificationNotFound = errors.New("push: notification not found")
)

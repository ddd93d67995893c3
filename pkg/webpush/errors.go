package webpush

import "errors"

var (
	// ErrGone marks a subscription the push service reports as permanently
	// invalid. The device registration should be deactivated.
	ErrGone = errors.New("webpush: subscription gone")
	// ErrRejected marks a delivery the push service refused because of the
	// request itself (malformed payload, bad auth, oversized body).
	ErrRejected = errors.New("webpush: delivery rejected")
	// ErrTransient marks a retryable-class failure: network trouble,
	// throttling, push service errors or an expired deadline.
	ErrTransient = errors.New("webpush: transient delivery failure")
	// ErrInvalidSubscription marks a descriptor unusable for delivery.
	ErrInvalidSubscription = errors.New("webpush: invalid subscription")
	// ErrMissingVAPIDKeys is returned when the client is constructed
	// without a VAPID key pair.
	ErrMissingVAPIDKeys = errors.New("webpush: VAPID public and private keys are required")
)

// IsGone reports whether err classifies as a permanently dead subscription.
func IsGone(err error) bool {
	return errors.Is(err, ErrGone)
}

// IsRejected reports whether err classifies as a refused request.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsTransient reports whether err classifies as retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

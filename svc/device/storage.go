package device

import (
	"context"

	"github.com/dmitrymomot/pushkit/pkg/webpush"
)

// Storage handles device registration persistence. Upsert and the
// deactivation operations must be atomic per row: registrations are shared
// between concurrent send and registration calls for the same tenant.
type Storage interface {
	// Upsert stores the subscription for (appID, externalUserID), replacing
	// any existing descriptor and reactivating the row when it was inactive.
	// The last writer wins under concurrent registration of the same pair.
	Upsert(ctx context.Context, appID int64, externalUserID string, sub webpush.Subscription) (*Registration, error)

	// SetInactive deactivates the registration for (appID, externalUserID).
	// No-op when the pair has no row.
	SetInactive(ctx context.Context, appID int64, externalUserID string) error

	// Deactivate flips one registration inactive by id. Idempotent.
	Deactivate(ctx context.Context, id int64) error

	// ListActive returns active registrations for the app. A nil or empty
	// externalUserIDs filter selects every active device (broadcast).
	ListActive(ctx context.Context, appID int64, externalUserIDs []string) ([]Registration, error)

	// CountActive returns the number of active registrations for the app.
	CountActive(ctx context.Context, appID int64) (int, error)
}

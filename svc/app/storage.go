package app

import "context"

// Storage handles tenant app persistence.
type Storage interface {
	// Create stores a new app and returns it with the assigned id.
	Create(ctx context.Context, a App) (*App, error)

	// GetByPublicID retrieves an app by its public identifier, active or not.
	GetByPublicID(ctx context.Context, publicID string) (*App, error)

	// GetByName retrieves an app by its unique name.
	GetByName(ctx context.Context, name string) (*App, error)

	// RotateSecret replaces the app's secret key.
	RotateSecret(ctx context.Context, id int64, secretKey string) error

	// Deactivate flips the app inactive. Idempotent.
	Deactivate(ctx context.Context, id int64) error
}

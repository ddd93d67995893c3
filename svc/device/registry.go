package device

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/webpush"
)

// Registry is the device registration service for one storage backend.
// It validates input, delegates persistence and logs lifecycle events.
type Registry struct {
	storage Storage
	log     *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates a device registry over the given storage.
func NewRegistry(storage Storage, opts ...RegistryOption) *Registry {
	r := &Registry{
		storage: storage,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register upserts the subscription for (app, external user). Re-registering
// replaces the descriptor and reactivates a previously unregistered device.
func (r *Registry) Register(ctx context.Context, appID int64, externalUserID string, sub webpush.Subscription) (*Registration, error) {
	externalUserID = strings.TrimSpace(externalUserID)
	if externalUserID == "" {
		return nil, ErrEmptyExternalUserID
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	reg, err := r.storage.Upsert(ctx, appID, externalUserID, sub)
	if err != nil {
		return nil, err
	}

	r.log.LogAttrs(ctx, slog.LevelInfo, "Device registered",
		logger.AppID(appID),
		logger.DeviceID(reg.ID),
		logger.ExternalUserID(externalUserID),
	)
	return reg, nil
}

// Unregister deactivates the device for (app, external user). Succeeds
// without error when no registration exists.
func (r *Registry) Unregister(ctx context.Context, appID int64, externalUserID string) error {
	externalUserID = strings.TrimSpace(externalUserID)
	if externalUserID == "" {
		return ErrEmptyExternalUserID
	}

	if err := r.storage.SetInactive(ctx, appID, externalUserID); err != nil {
		return err
	}

	r.log.LogAttrs(ctx, slog.LevelInfo, "Device unregistered",
		logger.AppID(appID),
		logger.ExternalUserID(externalUserID),
	)
	return nil
}

// ResolveTargets returns the active devices a send call should address.
// An empty filter means broadcast: every active device of the app.
func (r *Registry) ResolveTargets(ctx context.Context, appID int64, externalUserIDs []string) ([]Registration, error) {
	return r.storage.ListActive(ctx, appID, externalUserIDs)
}

// Deactivate flips one registration inactive by id, used when the push
// transport reports the subscription gone. Idempotent.
func (r *Registry) Deactivate(ctx context.Context, deviceID int64) error {
	if err := r.storage.Deactivate(ctx, deviceID); err != nil {
		return err
	}

	r.log.LogAttrs(ctx, slog.LevelInfo, "Device deactivated",
		logger.DeviceID(deviceID),
	)
	return nil
}

// CountActive returns the number of active devices for the app.
func (r *Registry) CountActive(ctx context.Context, appID int64) (int, error) {
	return r.storage.CountActive(ctx, appID)
}

package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/pushkit/pkg/logger"
)

// Service owns tenant app lifecycle: creation with generated credentials,
// secret rotation and deactivation. Cache entries are invalidated whenever
// credentials or the active flag change.
type Service struct {
	storage Storage
	cache   Cache
	log     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceCache sets the credential cache to invalidate on writes.
func WithServiceCache(cache Cache) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a tenant app service.
func NewService(storage Storage, opts ...ServiceOption) *Service {
	s := &Service{
		storage: storage,
		cache:   NoOpCache{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new tenant app with freshly generated credentials.
func (s *Service) Create(ctx context.Context, name, description string) (*App, error) {
	a := App{
		PublicID:    NewPublicID(),
		SecretKey:   NewSecretKey(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Active:      true,
	}

	created, err := s.storage.Create(ctx, a)
	if err != nil {
		return nil, err
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "Tenant app created",
		logger.AppID(created.ID),
		slog.String("public_id", created.PublicID),
	)
	return created, nil
}

// GetOrCreateByName returns the app with the given name, creating it when
// absent. Used to bootstrap the internal operator-notification app.
func (s *Service) GetOrCreateByName(ctx context.Context, name, description string) (*App, error) {
	existing, err := s.storage.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}

	created, err := s.Create(ctx, name, description)
	if err == nil {
		return created, nil
	}
	// Lost a creation race: another instance bootstrapped the same app.
	if existing, lookupErr := s.storage.GetByName(ctx, name); lookupErr == nil {
		return existing, nil
	}
	return nil, err
}

// RotateSecret replaces the app's secret key and returns the new key.
func (s *Service) RotateSecret(ctx context.Context, a *App) (string, error) {
	secret := NewSecretKey()
	if err := s.storage.RotateSecret(ctx, a.ID, secret); err != nil {
		return "", err
	}

	if err := s.cache.Delete(ctx, a.PublicID); err != nil {
		s.log.LogAttrs(ctx, slog.LevelWarn, "Failed to invalidate app cache",
			logger.AppID(a.ID),
			logger.Error(err),
		)
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "App secret rotated", logger.AppID(a.ID))
	return secret, nil
}

// Deactivate flips the app inactive; the gate rejects it from then on.
func (s *Service) Deactivate(ctx context.Context, a *App) error {
	if err := s.storage.Deactivate(ctx, a.ID); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, a.PublicID); err != nil {
		s.log.LogAttrs(ctx, slog.LevelWarn, "Failed to invalidate app cache",
			logger.AppID(a.ID),
			logger.Error(err),
		)
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "Tenant app deactivated", logger.AppID(a.ID))
	return nil
}

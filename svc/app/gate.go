package app

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/dmitrymomot/pushkit/pkg/logger"
)

// Gate authenticates send requests against a tenant's public id and secret
// key before the fan-out engine is invoked. It fails closed: every mismatch
// is reported as the same ErrInvalidCredentials.
type Gate struct {
	storage Storage
	cache   Cache
	log     *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateCache sets the credential cache. Defaults to NoOpCache.
func WithGateCache(cache Cache) GateOption {
	return func(g *Gate) {
		if cache != nil {
			g.cache = cache
		}
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(log *slog.Logger) GateOption {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGate creates a credential gate over the given storage.
func NewGate(storage Storage, opts ...GateOption) *Gate {
	g := &Gate{
		storage: storage,
		cache:   NoOpCache{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate resolves the app for the given credentials. Unknown public
// id, wrong secret and inactive app all return ErrInvalidCredentials.
func (g *Gate) Authenticate(ctx context.Context, publicID, secretKey string) (*App, error) {
	if publicID == "" || secretKey == "" {
		return nil, ErrInvalidCredentials
	}

	a, cached := g.cache.Get(ctx, publicID)
	if !cached {
		var err error
		a, err = g.storage.GetByPublicID(ctx, publicID)
		if err != nil {
			// Storage-level failures are also reported uniformly; logging keeps
			// the operational signal without widening the response.
			g.log.LogAttrs(ctx, slog.LevelDebug, "App credential lookup failed",
				slog.String("public_id", publicID),
				logger.Error(err),
			)
			return nil, ErrInvalidCredentials
		}

		if err := g.cache.Set(ctx, publicID, a); err != nil {
			g.log.LogAttrs(ctx, slog.LevelWarn, "Failed to cache app credentials",
				slog.String("public_id", publicID),
				logger.Error(err),
			)
		}
	}

	if subtle.ConstantTimeCompare([]byte(a.SecretKey), []byte(secretKey)) != 1 {
		return nil, ErrInvalidCredentials
	}

	if !a.Active {
		return nil, ErrInvalidCredentials
	}

	return a, nil
}

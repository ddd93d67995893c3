package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/svc/app"
)

func seedApp(t *testing.T, storage *app.MemoryStorage, active bool) *app.App {
	t.Helper()

	created, err := storage.Create(context.Background(), app.App{
		PublicID:  app.NewPublicID(),
		SecretKey: app.NewSecretKey(),
		Name:      "test-app-" + app.NewPublicID(),
		Active:    active,
	})
	require.NoError(t, err)
	return created
}

func TestGateAuthenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		storage := app.NewMemoryStorage()
		tenant := seedApp(t, storage, true)
		gate := app.NewGate(storage)

		got, err := gate.Authenticate(ctx, tenant.PublicID, tenant.SecretKey)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)
	})

	t.Run("unknown public id", func(t *testing.T) {
		t.Parallel()

		gate := app.NewGate(app.NewMemoryStorage())

		_, err := gate.Authenticate(ctx, "app_unknown", "sk_whatever")
		assert.ErrorIs(t, err, app.ErrInvalidCredentials)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		storage := app.NewMemoryStorage()
		tenant := seedApp(t, storage, true)
		gate := app.NewGate(storage)

		_, err := gate.Authenticate(ctx, tenant.PublicID, "sk_wrong")
		assert.ErrorIs(t, err, app.ErrInvalidCredentials)
	})

	t.Run("inactive app", func(t *testing.T) {
		t.Parallel()

		storage := app.NewMemoryStorage()
		tenant := seedApp(t, storage, false)
		gate := app.NewGate(storage)

		_, err := gate.Authenticate(ctx, tenant.PublicID, tenant.SecretKey)
		assert.ErrorIs(t, err, app.ErrInvalidCredentials)
	})

	t.Run("failure modes are indistinguishable", func(t *testing.T) {
		t.Parallel()

		storage := app.NewMemoryStorage()
		active := seedApp(t, storage, true)
		inactive := seedApp(t, storage, false)
		gate := app.NewGate(storage)

		_, errUnknown := gate.Authenticate(ctx, "app_missing", "sk_x")
		_, errWrongSecret := gate.Authenticate(ctx, active.PublicID, "sk_x")
		_, errInactive := gate.Authenticate(ctx, inactive.PublicID, inactive.SecretKey)

		assert.Equal(t, errUnknown, errWrongSecret)
		assert.Equal(t, errWrongSecret, errInactive)
	})

	t.Run("empty credentials rejected", func(t *testing.T) {
		t.Parallel()

		gate := app.NewGate(app.NewMemoryStorage())

		_, err := gate.Authenticate(ctx, "", "")
		assert.ErrorIs(t, err, app.ErrInvalidCredentials)
	})
}

// countingCache records cache traffic to verify the read-through path.
type countingCache struct {
	apps map[string]*app.App
	hits int
	sets int
}

func (c *countingCache) Get(_ context.Context, publicID string) (*app.App, bool) {
	a, ok := c.apps[publicID]
	if ok {
		c.hits++
	}
	return a, ok
}

func (c *countingCache) Set(_ context.Context, publicID string, a *app.App) error {
	c.apps[publicID] = a
	c.sets++
	return nil
}

func (c *countingCache) Delete(_ context.Context, publicID string) error {
	delete(c.apps, publicID)
	return nil
}

func TestGateCacheReadThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := app.NewMemoryStorage()
	tenant := seedApp(t, storage, true)
	cache := &countingCache{apps: make(map[string]*app.App)}
	gate := app.NewGate(storage, app.WithGateCache(cache))

	_, err := gate.Authenticate(ctx, tenant.PublicID, tenant.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 0, cache.hits)

	_, err = gate.Authenticate(ctx, tenant.PublicID, tenant.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.sets)
}

func TestServiceLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("create generates credentials", func(t *testing.T) {
		t.Parallel()

		svc := app.NewService(app.NewMemoryStorage())
		created, err := svc.Create(ctx, "My App", "demo")
		require.NoError(t, err)
		assert.True(t, created.Active)
		assert.Regexp(t, `^app_[0-9A-Za-z]{16}$`, created.PublicID)
		assert.Regexp(t, `^sk_[0-9A-Za-z_-]{64}$`, created.SecretKey)
	})

	t.Run("rotate invalidates old secret", func(t *testing.T) {
		t.Parallel()

		storage := app.NewMemoryStorage()
		svc := app.NewService(storage)
		gate := app.NewGate(storage)

		created, err := svc.Create(ctx, "Rotated App", "")
		require.NoError(t, err)
		oldSecret := created.SecretKey

		newSecret, err := svc.RotateSecret(ctx, created)
		require.NoError(t, err)
		assert.NotEqual(t, oldSecret, newSecret)

		_, err = gate.Authenticate(ctx, created.PublicID, oldSecret)
		assert.ErrorIs(t, err, app.ErrInvalidCredentials)

		_, err = gate.Authenticate(ctx, created.PublicID, newSecret)
		assert.NoError(t, err)
	})

	t.Run("get or create is idempotent", func(t *testing.T) {
		t.Parallel()

		svc := app.NewService(app.NewMemoryStorage())

		first, err := svc.GetOrCreateByName(ctx, "Internal Notifications", "operator alerts")
		require.NoError(t, err)

		second, err := svc.GetOrCreateByName(ctx, "Internal Notifications", "operator alerts")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("deactivated app fails authentication", func(t *testing.T) {
		t.Parallel()

		storage := app.NewMemoryStorage()
		svc := app.NewService(storage)
		gate := app.NewGate(storage)

		created, err := svc.Create(ctx, "Doomed App", "")
		require.NoError(t, err)
		require.NoError(t, svc.Deactivate(ctx, created))

		_, err = gate.Authenticate(ctx, created.PublicID, created.SecretKey)
		assert.ErrorIs(t, err, app.ErrInvalidCredentials)
	})
}

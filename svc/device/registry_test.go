package device_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/webpush"
	"github.com/dmitrymomot/pushkit/svc/device"
)

func testSub(seed string) webpush.Subscription {
	return webpush.Subscription{
		Endpoint: "https://push.example.com/send/" + seed,
		Keys:     webpush.Keys{P256dh: "p256dh-" + seed, Auth: "auth-" + seed},
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const appID = int64(1)

	t.Run("creates registration", func(t *testing.T) {
		t.Parallel()

		reg := device.NewRegistry(device.NewMemoryStorage())

		created, err := reg.Register(ctx, appID, "user-a", testSub("a"))
		require.NoError(t, err)
		assert.True(t, created.Active)
		assert.Equal(t, "user-a", created.ExternalUserID)
	})

	t.Run("re-register replaces descriptor, second wins", func(t *testing.T) {
		t.Parallel()

		reg := device.NewRegistry(device.NewMemoryStorage())

		first, err := reg.Register(ctx, appID, "user-a", testSub("old"))
		require.NoError(t, err)

		second, err := reg.Register(ctx, appID, "user-a", testSub("new"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "https://push.example.com/send/new", second.Subscription.Endpoint)

		targets, err := reg.ResolveTargets(ctx, appID, nil)
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "https://push.example.com/send/new", targets[0].Subscription.Endpoint)
	})

	t.Run("re-register reactivates unregistered device", func(t *testing.T) {
		t.Parallel()

		reg := device.NewRegistry(device.NewMemoryStorage())

		_, err := reg.Register(ctx, appID, "user-a", testSub("a"))
		require.NoError(t, err)
		require.NoError(t, reg.Unregister(ctx, appID, "user-a"))

		targets, err := reg.ResolveTargets(ctx, appID, nil)
		require.NoError(t, err)
		assert.Empty(t, targets)

		_, err = reg.Register(ctx, appID, "user-a", testSub("a2"))
		require.NoError(t, err)

		targets, err = reg.ResolveTargets(ctx, appID, nil)
		require.NoError(t, err)
		assert.Len(t, targets, 1)
	})

	t.Run("empty external user id", func(t *testing.T) {
		t.Parallel()

		reg := device.NewRegistry(device.NewMemoryStorage())

		_, err := reg.Register(ctx, appID, "  ", testSub("a"))
		assert.ErrorIs(t, err, device.ErrEmptyExternalUserID)
	})

	t.Run("invalid subscription", func(t *testing.T) {
		t.Parallel()

		reg := device.NewRegistry(device.NewMemoryStorage())

		_, err := reg.Register(ctx, appID, "user-a", webpush.Subscription{Endpoint: "not-a-url"})
		assert.ErrorIs(t, err, webpush.ErrInvalidSubscription)
	})

	t.Run("concurrent registration of the same pair", func(t *testing.T) {
		t.Parallel()

		storage := device.NewMemoryStorage()
		reg := device.NewRegistry(storage)

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := reg.Register(ctx, appID, "user-a", testSub(fmt.Sprintf("v%d", i)))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		targets, err := reg.ResolveTargets(ctx, appID, nil)
		require.NoError(t, err)
		require.Len(t, targets, 1, "exactly one active row must survive")
	})
}

func TestRegistryUnregister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const appID = int64(1)

	t.Run("no-op for unknown pair", func(t *testing.T) {
		t.Parallel()

		reg := device.NewRegistry(device.NewMemoryStorage())
		assert.NoError(t, reg.Unregister(ctx, appID, "ghost"))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		storage := device.NewMemoryStorage()
		reg := device.NewRegistry(storage)

		_, err := reg.Register(ctx, appID, "user-a", testSub("a"))
		require.NoError(t, err)

		require.NoError(t, reg.Unregister(ctx, appID, "user-a"))
		countAfterFirst, err := reg.CountActive(ctx, appID)
		require.NoError(t, err)

		require.NoError(t, reg.Unregister(ctx, appID, "user-a"))
		countAfterSecond, err := reg.CountActive(ctx, appID)
		require.NoError(t, err)

		assert.Equal(t, countAfterFirst, countAfterSecond)
		assert.Zero(t, countAfterSecond)
	})
}

func TestRegistryResolveTargets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const appID = int64(1)

	seed := func(t *testing.T) *device.Registry {
		t.Helper()
		reg := device.NewRegistry(device.NewMemoryStorage())
		for _, user := range []string{"a", "b", "c"} {
			_, err := reg.Register(ctx, appID, user, testSub(user))
			require.NoError(t, err)
		}
		return reg
	}

	t.Run("nil filter is broadcast", func(t *testing.T) {
		t.Parallel()

		reg := seed(t)
		targets, err := reg.ResolveTargets(ctx, appID, nil)
		require.NoError(t, err)
		assert.Len(t, targets, 3)
	})

	t.Run("filter restricts to named users", func(t *testing.T) {
		t.Parallel()

		reg := seed(t)
		targets, err := reg.ResolveTargets(ctx, appID, []string{"a", "c"})
		require.NoError(t, err)
		require.Len(t, targets, 2)
	})

	t.Run("unknown user resolves to empty set", func(t *testing.T) {
		t.Parallel()

		reg := seed(t)
		targets, err := reg.ResolveTargets(ctx, appID, []string{"nobody"})
		require.NoError(t, err)
		assert.Empty(t, targets)
	})

	t.Run("other tenant devices are invisible", func(t *testing.T) {
		t.Parallel()

		reg := seed(t)
		targets, err := reg.ResolveTargets(ctx, int64(99), nil)
		require.NoError(t, err)
		assert.Empty(t, targets)
	})

	t.Run("deactivated device excluded on the very next resolve", func(t *testing.T) {
		t.Parallel()

		storage := device.NewMemoryStorage()
		reg := device.NewRegistry(storage)
		created, err := reg.Register(ctx, appID, "user-a", testSub("a"))
		require.NoError(t, err)

		require.NoError(t, reg.Deactivate(ctx, created.ID))

		targets, err := reg.ResolveTargets(ctx, appID, nil)
		require.NoError(t, err)
		assert.Empty(t, targets)
	})

	t.Run("deactivate unknown id is idempotent", func(t *testing.T) {
		t.Parallel()

		reg := device.NewRegistry(device.NewMemoryStorage())
		assert.NoError(t, reg.Deactivate(ctx, 404))
		assert.NoError(t, reg.Deactivate(ctx, 404))
	})
}

package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/modules/gateway"
	"github.com/dmitrymomot/pushkit/pkg/webpush"
	"github.com/dmitrymomot/pushkit/svc/app"
	"github.com/dmitrymomot/pushkit/svc/device"
	"github.com/dmitrymomot/pushkit/svc/push"
)

type fakeTransport struct {
	mu        sync.Mutex
	delivered [][]byte
	err       error
}

func (t *fakeTransport) Deliver(_ context.Context, _ webpush.Subscription, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.delivered = append(t.delivered, payload)
	return nil
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.delivered)
}

type testEnv struct {
	srv       *httptest.Server
	apps      *app.Service
	registry  *device.Registry
	transport *fakeTransport
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	appStorage := app.NewMemoryStorage()
	registry := device.NewRegistry(device.NewMemoryStorage())
	transport := &fakeTransport{}
	engine := push.NewEngine(registry, transport, push.NewMemoryStorage())

	r := gateway.Router(gateway.RouterOptions{
		Gate:           app.NewGate(appStorage),
		Apps:           appStorage,
		Engine:         engine,
		Devices:        registry,
		VAPIDPublicKey: "test-vapid-public-key",
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:       srv,
		apps:      app.NewService(appStorage),
		registry:  registry,
		transport: transport,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, headers map[string]string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func validSubscription() webpush.Subscription {
	return webpush.Subscription{
		Endpoint: "https://push.example.com/send/abc",
		Keys:     webpush.Keys{P256dh: "p256dh-key", Auth: "auth-secret"},
	}
}

func authHeaders(a *app.App) map[string]string {
	return map[string]string{"X-App-ID": a.PublicID, "X-App-Secret": a.SecretKey}
}

func TestSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("dispatches to registered devices with header credentials", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)
		_, err = env.registry.Register(ctx, a.ID, "user-1", validSubscription())
		require.NoError(t, err)

		resp, body := env.do(t, http.MethodPost, "/push/send", authHeaders(a), map[string]any{
			"notification": map[string]any{"title": "Hello", "body": "World"},
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, body["sent"])
		assert.EqualValues(t, 0, body["failed"])
		assert.NotZero(t, body["notification_id"])
		assert.Equal(t, 1, env.transport.count())
	})

	t.Run("accepts credentials in the request body", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)

		resp, _ := env.do(t, http.MethodPost, "/push/send", nil, map[string]any{
			"app_id":       a.PublicID,
			"secret_key":   a.SecretKey,
			"notification": map[string]any{"title": "Hello"},
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)

		resp, body := env.do(t, http.MethodPost, "/push/send", map[string]string{
			"X-App-ID": a.PublicID, "X-App-Secret": "sk_wrong",
		}, map[string]any{
			"notification": map[string]any{"title": "Hello"},
		})

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		errBody, _ := body["error"].(map[string]any)
		assert.Equal(t, "invalid_credentials", errBody["code"])
		assert.Equal(t, 0, env.transport.count())
	})

	t.Run("rejects deactivated app", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)
		require.NoError(t, env.apps.Deactivate(ctx, a))

		resp, _ := env.do(t, http.MethodPost, "/push/send", authHeaders(a), map[string]any{
			"notification": map[string]any{"title": "Hello"},
		})

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects payload without a title", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)

		resp, body := env.do(t, http.MethodPost, "/push/send", authHeaders(a), map[string]any{
			"notification": map[string]any{"body": "no title"},
		})

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		errBody, _ := body["error"].(map[string]any)
		assert.Equal(t, "validation_error", errBody["code"])
	})

	t.Run("targets only the listed external users", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)
		for _, uid := range []string{"user-1", "user-2", "user-3"} {
			_, err := env.registry.Register(ctx, a.ID, uid, validSubscription())
			require.NoError(t, err)
		}

		resp, body := env.do(t, http.MethodPost, "/push/send", authHeaders(a), map[string]any{
			"notification":             map[string]any{"title": "Hi"},
			"target_external_user_ids": []string{"user-1", "user-3"},
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 2, body["sent"])
	})
}

func TestNotificationHistoryAndLogs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("logs are scoped to the authenticated app", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)
		other, err := env.apps.Create(ctx, "other", "")
		require.NoError(t, err)
		_, err = env.registry.Register(ctx, a.ID, "user-1", validSubscription())
		require.NoError(t, err)

		_, sendBody := env.do(t, http.MethodPost, "/push/send", authHeaders(a), map[string]any{
			"notification": map[string]any{"title": "Audited"},
		})
		notifID := int64(sendBody["notification_id"].(float64))

		resp, body := env.do(t, http.MethodGet, fmt.Sprintf("/push/notifications/%d/logs", notifID), authHeaders(a), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		logs, _ := body["logs"].([]any)
		require.Len(t, logs, 1)
		entry, _ := logs[0].(map[string]any)
		assert.Equal(t, "SENT", entry["status"])

		// Another tenant cannot read them.
		resp, _ = env.do(t, http.MethodGet, fmt.Sprintf("/push/notifications/%d/logs", notifID), authHeaders(other), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("history lists the app's notifications newest first", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)

		for _, title := range []string{"first", "second"} {
			resp, _ := env.do(t, http.MethodPost, "/push/send", authHeaders(a), map[string]any{
				"notification": map[string]any{"title": title},
			})
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}

		resp, body := env.do(t, http.MethodGet, "/push/notifications", authHeaders(a), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		notifs, _ := body["notifications"].([]any)
		require.Len(t, notifs, 2)
		newest, _ := notifs[0].(map[string]any)
		payload, _ := newest["payload"].(map[string]any)
		assert.Equal(t, "second", payload["title"])
	})

	t.Run("unknown notification id is not found", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)

		resp, _ := env.do(t, http.MethodGet, "/push/notifications/9999/logs", authHeaders(a), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSDKRoutes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("serves the VAPID public key", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp, body := env.do(t, http.MethodGet, "/sdk/vapid-public-key", nil, nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "test-vapid-public-key", body["public_key"])
	})

	t.Run("registers a device by public app id", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)

		resp, body := env.do(t, http.MethodPost, "/sdk/devices", nil, map[string]any{
			"app_id":           a.PublicID,
			"external_user_id": "user-1",
			"subscription":     validSubscription(),
		})

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.NotZero(t, body["device_id"])

		targets, err := env.registry.ResolveTargets(ctx, a.ID, nil)
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "user-1", targets[0].ExternalUserID)
	})

	t.Run("unknown app id is not found", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp, body := env.do(t, http.MethodPost, "/sdk/devices", nil, map[string]any{
			"app_id":           "app_doesnotexist00",
			"external_user_id": "user-1",
			"subscription":     validSubscription(),
		})

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		errBody, _ := body["error"].(map[string]any)
		assert.Equal(t, "app_not_found", errBody["code"])
	})

	t.Run("deactivated app accepts no registrations", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)
		require.NoError(t, env.apps.Deactivate(ctx, a))

		resp, _ := env.do(t, http.MethodPost, "/sdk/devices", nil, map[string]any{
			"app_id":           a.PublicID,
			"external_user_id": "user-1",
			"subscription":     validSubscription(),
		})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rejects a subscription without keys", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)

		resp, _ := env.do(t, http.MethodPost, "/sdk/devices", nil, map[string]any{
			"app_id":           a.PublicID,
			"external_user_id": "user-1",
			"subscription":     map[string]any{"endpoint": "https://push.example.com/x"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("unregister removes the device from the target set", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		a, err := env.apps.Create(ctx, "acme", "")
		require.NoError(t, err)
		_, err = env.registry.Register(ctx, a.ID, "user-1", validSubscription())
		require.NoError(t, err)

		resp, _ := env.do(t, http.MethodDelete, "/sdk/devices", nil, map[string]any{
			"app_id":           a.PublicID,
			"external_user_id": "user-1",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		targets, err := env.registry.ResolveTargets(ctx, a.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, targets)
	})
}

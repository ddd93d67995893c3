package gateway

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pushkit/pkg/webpush"
	"github.com/dmitrymomot/pushkit/svc/app"
	"github.com/dmitrymomot/pushkit/svc/device"
	"github.com/dmitrymomot/pushkit/svc/push"
)

// Authenticator verifies tenant credentials for the server-to-server routes.
type Authenticator interface {
	Authenticate(ctx context.Context, publicID, secretKey string) (*app.App, error)
}

// AppResolver looks up a tenant app by its public id. The SDK routes run in
// the end user's browser which only ever holds the public id, never the
// secret key, so this is the whole of their authentication.
type AppResolver interface {
	GetByPublicID(ctx context.Context, publicID string) (*app.App, error)
}

// Engine is the dispatch surface exposed over HTTP.
type Engine interface {
	Send(ctx context.Context, appID int64, payload push.Payload, targetExternalUserIDs []string) (push.Result, error)
	Logs(ctx context.Context, appID, notificationID int64) ([]push.DeliveryLog, error)
	History(ctx context.Context, appID int64, limit int) ([]push.Notification, error)
}

// DeviceRegistry is the registration surface exposed to the browser SDK.
type DeviceRegistry interface {
	Register(ctx context.Context, appID int64, externalUserID string, sub webpush.Subscription) (*device.Registration, error)
	Unregister(ctx context.Context, appID int64, externalUserID string) error
}

// RouterOptions wires the gateway's dependencies.
type RouterOptions struct {
	Gate    Authenticator
	Apps    AppResolver
	Engine  Engine
	Devices DeviceRegistry

	// VAPIDPublicKey is served to browser SDKs so they can subscribe with
	// the matching applicationServerKey.
	VAPIDPublicKey string

	Logger *slog.Logger
}

// Router creates the HTTP API router.
//
// Two route groups with different trust levels:
//
//	/push/* is server to server and requires the app's public id plus
//	secret key (X-App-ID and X-App-Secret headers, or credentials in the
//	send request body).
//
//	/sdk/* is called by browsers and authenticates by public app id only.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/v1", gateway.Router(gateway.RouterOptions{
//	    Gate:    gate,
//	    Apps:    appStorage,
//	    Engine:  engine,
//	    Devices: registry,
//	}))
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	h := &handlers{
		gate:     opts.Gate,
		apps:     opts.Apps,
		engine:   opts.Engine,
		devices:  opts.Devices,
		vapidKey: opts.VAPIDPublicKey,
		log:      log,
	}

	r := chi.NewRouter()

	r.Route("/push", func(pr chi.Router) {
		pr.Post("/send", h.send)
		pr.Get("/notifications", h.history)
		pr.Get("/notifications/{id}/logs", h.logs)
	})

	r.Route("/sdk", func(sr chi.Router) {
		sr.Get("/vapid-public-key", h.vapidPublicKey)
		sr.Post("/devices", h.register)
		sr.Delete("/devices", h.unregister)
	})

	return r
}

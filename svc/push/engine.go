package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/pushkit/pkg/async"
	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/webpush"
	"github.com/dmitrymomot/pushkit/svc/device"
)

// DeviceRegistry is the registry surface the engine needs: resolving the
// recipient set and deactivating devices whose subscription is gone.
type DeviceRegistry interface {
	ResolveTargets(ctx context.Context, appID int64, externalUserIDs []string) ([]device.Registration, error)
	Deactivate(ctx context.Context, deviceID int64) error
}

const defaultMaxInFlight = 32

// Engine orchestrates one send call end to end: create the notification
// record, fan out deliveries concurrently, append exactly one delivery log
// entry per device and reconcile dead subscriptions.
type Engine struct {
	registry    DeviceRegistry
	transport   webpush.Transport
	storage     Storage
	log         *slog.Logger
	maxInFlight int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxInFlight caps concurrent deliveries per send call. The cap bounds
// resource usage on large broadcasts independently of request volume.
func WithMaxInFlight(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxInFlight = n
		}
	}
}

// WithEngineLogger sets the logger.
func WithEngineLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates a fan-out engine.
func NewEngine(registry DeviceRegistry, transport webpush.Transport, storage Storage, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:    registry,
		transport:   transport,
		storage:     storage,
		log:         slog.Default(),
		maxInFlight: defaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send dispatches one payload to the resolved device set of the app and
// returns aggregate counts. Per-device failures never abort the batch; only
// payload validation, storing the notification record and resolving the
// target set are call-fatal. The caller authenticates the app before
// invoking Send; the engine does not re-check tenant status.
func (e *Engine) Send(ctx context.Context, appID int64, payload Payload, targetExternalUserIDs []string) (Result, error) {
	if err := payload.Validate(); err != nil {
		return Result{}, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	// The notification record comes first so the send is auditable even when
	// zero devices match or every delivery fails.
	notif, err := e.storage.CreateNotification(ctx, Notification{
		AppID:   appID,
		Payload: payload,
		Silent:  payload.Silent,
	})
	if err != nil {
		return Result{}, errors.Join(ErrNotificationNotStored, err)
	}

	targets, err := e.registry.ResolveTargets(ctx, appID, targetExternalUserIDs)
	if err != nil {
		return Result{}, errors.Join(ErrResolveTargets, err)
	}

	res := Result{NotificationID: notif.ID}
	if len(targets) == 0 {
		return res, nil
	}

	type outcome struct {
		dev device.Registration
		err error
	}

	outcomes := make(chan outcome)
	sem := make(chan struct{}, e.maxInFlight)

	var wg sync.WaitGroup
	for _, dev := range targets {
		wg.Add(1)
		go func(dev device.Registration) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes <- outcome{dev: dev, err: e.transport.Deliver(ctx, dev.Subscription, body)}
		}(dev)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Aggregation runs on the calling goroutine: it is the barrier the send
	// call blocks on, and the single writer of this notification's logs.
	for o := range outcomes {
		if o.err == nil {
			res.Sent++
			e.appendLog(ctx, notif.ID, o.dev.ID, StatusSent, nil)
			continue
		}

		res.Failed++
		detail := o.err.Error()
		e.appendLog(ctx, notif.ID, o.dev.ID, StatusFailed, &detail)

		if webpush.IsGone(o.err) {
			e.deactivate(ctx, o.dev)
		}
	}

	e.log.LogAttrs(ctx, slog.LevelInfo, "Notification dispatched",
		logger.AppID(appID),
		logger.NotificationID(notif.ID),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

// Logs returns the delivery audit trail for a notification. The notification
// must belong to the given app; cross-tenant ids report not found.
func (e *Engine) Logs(ctx context.Context, appID, notificationID int64) ([]DeliveryLog, error) {
	notif, err := e.storage.GetNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notif.AppID != appID {
		return nil, ErrNotificationNotFound
	}
	return e.storage.ListLogs(ctx, notificationID)
}

// History returns the most recent notifications for an app.
func (e *Engine) History(ctx context.Context, appID int64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.storage.ListNotifications(ctx, appID, limit)
}

// appendLog writes one audit entry. Log storage failures are reported but do
// not disturb the aggregate counts: the delivery already happened.
func (e *Engine) appendLog(ctx context.Context, notificationID, deviceID int64, status Status, detail *string) {
	// The log write must survive a caller deadline that expired mid-batch.
	logCtx := context.WithoutCancel(ctx)
	if _, err := e.storage.AppendLog(logCtx, DeliveryLog{
		NotificationID: notificationID,
		DeviceID:       deviceID,
		Status:         status,
		Error:          detail,
	}); err != nil {
		e.log.LogAttrs(ctx, slog.LevelError, "Failed to append delivery log",
			logger.NotificationID(notificationID),
			logger.DeviceID(deviceID),
			logger.Error(err),
		)
	}
}

// deactivate retires a device whose subscription the push service reported
// gone. Best effort: it neither blocks the delivery barrier nor fails the
// send call.
func (e *Engine) deactivate(ctx context.Context, dev device.Registration) {
	async.Async(context.WithoutCancel(ctx), dev, func(ctx context.Context, dev device.Registration) (struct{}, error) {
		if err := e.registry.Deactivate(ctx, dev.ID); err != nil {
			e.log.LogAttrs(ctx, slog.LevelWarn, "Failed to deactivate gone device",
				logger.DeviceID(dev.ID),
				logger.AppID(dev.AppID),
				logger.Error(err),
			)
			return struct{}{}, err
		}

		e.log.LogAttrs(ctx, slog.LevelInfo, "Deactivated gone device",
			logger.DeviceID(dev.ID),
			logger.AppID(dev.AppID),
			logger.ExternalUserID(dev.ExternalUserID),
		)
		return struct{}{}, nil
	})
}

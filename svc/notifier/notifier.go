package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/svc/app"
	"github.com/dmitrymomot/pushkit/svc/push"
)

// internalAppName identifies the tenant app reserved for operator alerts.
// Operator notifications ride the ordinary fan-out pipeline; nothing in the
// engine knows this tenant is special.
const (
	internalAppName        = "Operator Notifications"
	internalAppDescription = "Internal app for operator alerts"
)

// AppProvider resolves the internal tenant app, creating it when absent.
type AppProvider interface {
	GetOrCreateByName(ctx context.Context, name, description string) (*app.App, error)
}

// Sender is the engine surface the notifier uses.
type Sender interface {
	Send(ctx context.Context, appID int64, payload push.Payload, targetExternalUserIDs []string) (push.Result, error)
}

// Notifier pushes operational events (signups, bans) to operator devices.
// Operators register their browsers under "admin_<id>" external user ids
// within the internal tenant app. Every method is best effort: failures are
// logged and never propagated to the caller's flow.
type Notifier struct {
	apps   AppProvider
	sender Sender
	log    *slog.Logger

	mu    sync.Mutex
	appID int64
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// New creates an operator notifier.
func New(apps AppProvider, sender Sender, opts ...Option) *Notifier {
	n := &Notifier{
		apps:   apps,
		sender: sender,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// OperatorUserID derives the external user id operators register under.
func OperatorUserID(operatorID int64) string {
	return fmt.Sprintf("admin_%d", operatorID)
}

// NotifyOperators broadcasts an alert to every registered operator device.
func (n *Notifier) NotifyOperators(ctx context.Context, title, body string, data map[string]any) {
	n.notify(ctx, title, body, data, nil)
}

// NotifyOperator targets a single operator's devices.
func (n *Notifier) NotifyOperator(ctx context.Context, operatorID int64, title, body string, data map[string]any) {
	n.notify(ctx, title, body, data, []string{OperatorUserID(operatorID)})
}

func (n *Notifier) notify(ctx context.Context, title, body string, data map[string]any, targets []string) {
	appID, err := n.internalAppID(ctx)
	if err != nil {
		n.log.LogAttrs(ctx, slog.LevelError, "Failed to resolve internal operator app",
			logger.Component("notifier"),
			logger.Error(err),
		)
		return
	}

	res, err := n.sender.Send(ctx, appID, push.Payload{
		Title: title,
		Body:  body,
		Icon:  "/admin-icon.png",
		Data:  data,
	}, targets)
	if err != nil {
		n.log.LogAttrs(ctx, slog.LevelError, "Failed to send operator notification",
			logger.Component("notifier"),
			logger.AppID(appID),
			logger.Error(err),
		)
		return
	}

	n.log.LogAttrs(ctx, slog.LevelDebug, "Operator notification sent",
		logger.Component("notifier"),
		logger.NotificationID(res.NotificationID),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
	)
}

// internalAppID resolves and memoizes the internal tenant app id.
func (n *Notifier) internalAppID(ctx context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.appID != 0 {
		return n.appID, nil
	}

	a, err := n.apps.GetOrCreateByName(ctx, internalAppName, internalAppDescription)
	if err != nil {
		return 0, err
	}
	n.appID = a.ID
	return n.appID, nil
}

package device

import (
	"time"

	"github.com/dmitrymomot/pushkit/pkg/webpush"
)

// Registration binds one external user's browser push subscription to a
// tenant app. At most one registration exists per (app, external user) pair;
// re-registering replaces the stored descriptor.
type Registration struct {
	ID             int64                `json:"id"`
	AppID          int64                `json:"app_id"`
	ExternalUserID string               `json:"external_user_id"`
	Subscription   webpush.Subscription `json:"subscription"`
	Active         bool                 `json:"active"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

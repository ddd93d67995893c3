package push

import (
	"strings"
	"time"
)

// Payload is the notification content handed to every targeted device.
// The Silent flag travels with the payload and is consumed by the client
// SDK; the engine delivers silent notifications exactly like audible ones.
type Payload struct {
	Title       string         `json:"title"`
	Body        string         `json:"body,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Image       string         `json:"image,omitempty"`
	ClickAction string         `json:"click_action,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Silent      bool           `json:"silent,omitempty"`
}

// Validate checks the payload before any bookkeeping happens.
func (p Payload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrInvalidPayload
	}
	return nil
}

// Notification is the immutable record of one send invocation. It is created
// before any delivery is attempted so that every send call is auditable,
// including sends that matched zero devices.
type Notification struct {
	ID        int64     `json:"id"`
	AppID     int64     `json:"app_id"`
	Payload   Payload   `json:"payload"`
	Silent    bool      `json:"silent"`
	CreatedAt time.Time `json:"created_at"`
}

// Status is the final per-device delivery outcome.
type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// DeliveryLog is the append-only audit record of one attempted device
// delivery for one notification. Exactly one entry exists per attempted
// device; entries are never mutated.
type DeliveryLog struct {
	ID             int64   `json:"id"`
	NotificationID int64   `json:"notification_id"`
	DeviceID       int64   `json:"device_id"`
	Status         Status  `json:"status"`
	Error          *string `json:"error,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

// Result is the aggregate outcome of one send call.
type Result struct {
	NotificationID int64 `json:"notification_id"`
	Sent           int   `json:"sent"`
	Failed         int   `json:"failed"`
}

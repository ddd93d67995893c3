package push

import "context"

// Storage persists notifications and their delivery logs. Both are owned by
// the single send call that writes them; no other caller mutates them.
type Storage interface {
	// CreateNotification stores a new notification record and returns it
	// with the assigned id and timestamp.
	CreateNotification(ctx context.Context, n Notification) (*Notification, error)

	// AppendLog stores one delivery log entry.
	AppendLog(ctx context.Context, l DeliveryLog) (*DeliveryLog, error)

	// GetNotification retrieves one notification by id.
	GetNotification(ctx context.Context, id int64) (*Notification, error)

	// ListLogs returns all delivery log entries for a notification.
	ListLogs(ctx context.Context, notificationID int64) ([]DeliveryLog, error)

	// ListNotifications returns the most recent notifications for an app.
	ListNotifications(ctx context.Context, appID int64, limit int) ([]Notification, error)
}

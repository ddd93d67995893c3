package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AppID records the tenant app identifier under the key "app_id".
func AppID(id int64) slog.Attr {
	return slog.Int64("app_id", id)
}

// DeviceID records the device registration identifier under the key "device_id".
func DeviceID(id int64) slog.Attr {
	return slog.Int64("device_id", id)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id int64) slog.Attr {
	return slog.Int64("notification_id", id)
}

// ExternalUserID records the tenant-side user identifier under the key "external_user_id".
func ExternalUserID(id string) slog.Attr {
	return slog.String("external_user_id", id)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Package logger provides a slog factory with environment presets and the
// service's standard log attributes (app, device and notification ids).
//
// Services receive an injected *slog.Logger and log with LogAttrs:
//
//	log.LogAttrs(ctx, slog.LevelInfo, "Notification dispatched",
//		logger.AppID(app.ID),
//		logger.NotificationID(res.NotificationID),
//	)
package logger

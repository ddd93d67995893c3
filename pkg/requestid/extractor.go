package requestid

import (
	"context"
	"log/slog"
)

// LoggerExtractor adapts FromContext to the logger's context extractor hook
// so every log record emitted within a request carries its correlation id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

// Package attr provides typed slog attribute constructors used across the
// service so log fields stay consistently named.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// ContestID renders a contest UUID under a stable key.
func ContestID(key string, id uuid.UUID) slog.Attr {
	return slog.String(key, id.String())
}

// UserID renders a user UUID under a stable key.
func UserID(key string, id uuid.UUID) slog.Attr {
	return slog.String(key, id.String())
}

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID on the context for later log
// extraction.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromMessageMetadata pulls the watermill correlation ID key so
// handlers and services agree on the metadata field name.
const CorrelationIDMetadataKey = middleware.CorrelationIDMetadataKey

// ExtractCorrelationID returns the correlation ID attribute for the current
// context, or an empty value when none was set.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return slog.String("correlation_id", id)
	}
	return slog.String("correlation_id", "")
}

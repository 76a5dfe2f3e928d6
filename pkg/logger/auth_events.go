package logger

import (
	"context"
	"log/slog"
)

// AuthEvent describes a client-side authentication event. Admin actions go to
// the persistent audit trail instead; this is operational logging only.
type AuthEvent struct {
	EventType     string
	ClientID      int64
	Email         string
	IPAddress     string
	Success       bool
	FailureReason string
}

// AuthEventLogger writes client authentication events as structured logs.
type AuthEventLogger struct {
	logger *slog.Logger
}

func NewAuthEventLogger(logger *slog.Logger) *AuthEventLogger {
	return &AuthEventLogger{logger: logger}
}

// Log records the event. Emails are masked; failures log at warn level.
func (l *AuthEventLogger) Log(ctx context.Context, event AuthEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "client_auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
	}

	if event.ClientID != 0 {
		attrs = append(attrs, slog.Int64("client_id", event.ClientID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "auth event", attrs...)
}

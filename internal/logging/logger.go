// Package logging is the structured logger handed to every component.
// Calls take the request context, and attributes attached to it with
// WithAttrs (request id, account id) are added to each record.
package logging

import "context"

// Logger takes alternating key/value pairs after the message:
//
//	logger.Info(ctx, "certificate published", "certificate_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}

type attrsKey struct{}

// WithAttrs returns a context whose log records carry args. Repeated calls
// accumulate.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	prev := attrsFrom(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

func attrsFrom(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey{}).([]any)
	return attrs
}

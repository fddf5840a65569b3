package telemetry

import (
	"context"

	"github.com/google/uuid"
)

// cycleIDKey is the context key type for the id of one request/stream cycle.
type cycleIDKey struct{}

// WithCycleID returns a child context that carries id.
// If ctx is nil, context.Background() is used.
func WithCycleID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, cycleIDKey{}, id)
}

// CycleIDFromContext returns the cycle id from ctx.
// Returns "", false if the value is missing or empty.
func CycleIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(cycleIDKey{}).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// EnsureCycleID returns ctx and its cycle id, attaching a fresh one when ctx has none.
func EnsureCycleID(ctx context.Context) (context.Context, string) {
	if id, ok := CycleIDFromContext(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithCycleID(ctx, id), id
}

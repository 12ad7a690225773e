package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	instanceKey contextKey = "instance"
)

// WithRunID annotates context with the identifier of one sync or test invocation.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithInstance annotates context with the service name of the Arr instance
// being processed, e.g. "radarr_1".
func WithInstance(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, instanceKey, name)
}

// InstanceFromContext returns the Arr instance service name if present.
func InstanceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(instanceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

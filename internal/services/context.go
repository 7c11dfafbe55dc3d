package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	passKey  contextKey = "pass"
	batchKey contextKey = "batch"
)

// WithRunID annotates context with the run identifier.
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

// WithPass annotates context with the pipeline pass name ("main" or "sweep").
func WithPass(ctx context.Context, pass string) context.Context {
	if pass == "" {
		return ctx
	}
	return context.WithValue(ctx, passKey, pass)
}

// PassFromContext returns the pass name if present.
func PassFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(passKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBatch annotates context with the batch index.
func WithBatch(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, batchKey, index)
}

// BatchFromContext returns the batch index if present.
func BatchFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(batchKey).(int)
	return v, ok
}

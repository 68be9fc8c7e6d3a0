package usecase

import "context"

// ProgressFunc receives human-readable progress from a running operation.
type ProgressFunc func(message string, percent int)

type progressCtxKey struct{}

// WithProgress derives a context whose operation reports progress through fn.
// The web layer binds fn to the gate's Update so /progress shows live state;
// operations run with a plain context report nowhere.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressCtxKey{}, fn)
}

func progressFrom(ctx context.Context) ProgressFunc {
	if fn, ok := ctx.Value(progressCtxKey{}).(ProgressFunc); ok && fn != nil {
		return fn
	}
	return func(string, int) {}
}

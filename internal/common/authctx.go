package common

import "context"

type contextKey int

const userIDContextKey contextKey = iota

// WithUserID attaches the authenticated subject to the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserID returns the authenticated subject, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok && id != ""
}

package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern stores the matched router pattern so downstream middleware
// can label metrics and spans with the pattern instead of the raw path.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the stored pattern, or "".
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	pattern, _ := ctx.Value(routePatternKey{}).(string)
	return pattern
}

package discount

import "context"

// Interceptor lets external code take over a rule before the built-in logic
// runs. The first interceptor reporting handled=true wins; the engine then
// skips its own application for that rule. Interceptors may mutate the
// session through the same primitives the engine uses.
type Interceptor interface {
	TryApply(ctx context.Context, rule Rule, session *Session, includeShipping bool) (handled bool, err error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, rule Rule, session *Session, includeShipping bool) (bool, error)

// TryApply implements Interceptor.
func (f InterceptorFunc) TryApply(ctx context.Context, rule Rule, session *Session, includeShipping bool) (bool, error) {
	return f(ctx, rule, session, includeShipping)
}

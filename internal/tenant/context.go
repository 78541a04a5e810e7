package tenant

import "context"

type contextKey struct{}

var scopeContextKey = contextKey{}

// ContextWithScope attaches the resolved tenant scope to a context.
func ContextWithScope(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, scopeContextKey, tc)
}

// ScopeFromContext returns the tenant scope attached to the context.
// The second result is false when no scope has been resolved.
func ScopeFromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(scopeContextKey).(Context)
	return tc, ok
}

package tenant

import "context"

type contextKey struct{}

// WithContext returns a context carrying the tenant. The handler layer calls
// this once per request after resolving identity.
func WithContext(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext extracts the tenant placed by WithContext.
func FromContext(ctx context.Context) (*Tenant, error) {
	t, ok := ctx.Value(contextKey{}).(*Tenant)
	if !ok || t == nil {
		return nil, ErrNoTenantInContext
	}
	return t, nil
}

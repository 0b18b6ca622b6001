// Package identity carries the authenticated caller through a request context.
package identity

import "context"

// Identity is the resolved owner of a request. Resource operations take the
// owner id from here and nowhere else.
type Identity struct {
	UserID   int64
	UserName string
	Email    string
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity attached by the authentication gate.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

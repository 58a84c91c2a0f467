package httpapi

import (
	"context"

	"github.com/metrocab/taxi-dispatch-api/internal/app/sessions"
)

type sessionKey struct{}

type sessionValue struct {
	principal sessions.Principal
	token     string
}

// WithSession stores the verified principal and its raw bearer token in the
// request context.
func WithSession(ctx context.Context, p sessions.Principal, token string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionValue{principal: p, token: token})
}

// PrincipalFromContext returns the verified acting identity, if any.
func PrincipalFromContext(ctx context.Context) (sessions.Principal, bool) {
	v, ok := ctx.Value(sessionKey{}).(sessionValue)
	return v.principal, ok && v.principal.IdentityID != ""
}

// TokenFromContext returns the raw bearer token behind the principal.
func TokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionKey{}).(sessionValue)
	return v.token, ok && v.token != ""
}

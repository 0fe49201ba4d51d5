package authn

import (
	"context"

	"git.sr.ht/~jakintosh/taskgate/internal/identity"
)

// bindingKey is a private type for the principal context key.
type bindingKey struct{}

type binding struct {
	principal *identity.Principal
	token     string
}

// WithPrincipal binds a verified principal, and the token that proved it,
// to ctx.
func WithPrincipal(
	ctx context.Context,
	principal *identity.Principal,
	token string,
) context.Context {
	return context.WithValue(ctx, bindingKey{}, &binding{
		principal: principal,
		token:     token,
	})
}

// PrincipalFromContext returns the bound principal, or false when the
// request is anonymous.
func PrincipalFromContext(ctx context.Context) (*identity.Principal, bool) {
	if b, ok := ctx.Value(bindingKey{}).(*binding); ok && b.principal != nil {
		return b.principal, true
	}
	return nil, false
}

// TokenFromContext returns the bearer token that authenticated the request.
func TokenFromContext(ctx context.Context) (string, bool) {
	if b, ok := ctx.Value(bindingKey{}).(*binding); ok && b.principal != nil {
		return b.token, true
	}
	return "", false
}

// IsAuthenticated reports whether a principal is bound to ctx.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := PrincipalFromContext(ctx)
	return ok
}

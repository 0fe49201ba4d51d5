// Package identity defines the user record the authentication layer works
// with and the lookup contract a user store must satisfy.
package identity

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("identity not found")

// Principal is a registered user: a unique handle and the bcrypt hash of
// their password. The hash never leaves the server.
type Principal struct {
	Handle string
	Secret []byte
}

// Username returns the handle. A nil principal has no username.
func (p *Principal) Username() string {
	if p == nil {
		return ""
	}
	return p.Handle
}

// UserDetails looks up principals by username. Implementations return an
// error wrapping ErrNotFound when no record matches; callers also treat a
// nil principal with a nil error as not found.
type UserDetails interface {
	FindByUsername(ctx context.Context, username string) (*Principal, error)
}

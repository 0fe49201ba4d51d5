package service

import (
	"context"

	"git.sr.ht/~jakintosh/taskgate/internal/identity"
)

// IdentityStore handles persistence of user identity data
type IdentityStore interface {
	identity.UserDetails
	InsertIdentity(ctx context.Context, handle string, secret []byte) error
}

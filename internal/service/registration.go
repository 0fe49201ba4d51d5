package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"git.sr.ht/~jakintosh/taskgate/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt hashes without truncation.
const maxPasswordBytes = 72

func (s *Service) Register(
	ctx context.Context,
	handle string,
	password string,
) error {
	if handle == "" || strings.TrimSpace(handle) != handle {
		return fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	if password == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPassword)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidPassword, maxPasswordBytes)
	}

	hashPass, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return fmt.Errorf("%w: failed to hash password: %v", ErrInternal, err)
	}

	err = s.identityStore.InsertIdentity(ctx, handle, hashPass)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: %s", ErrHandleExists, handle)
		}
		return fmt.Errorf("%w: failed to insert account: %v", ErrInternal, err)
	}

	return nil
}

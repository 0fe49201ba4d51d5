package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.sr.ht/~jakintosh/taskgate/internal/identity"
	"git.sr.ht/~jakintosh/taskgate/internal/metrics"
	"golang.org/x/crypto/bcrypt"
)

// IssuedToken is the result of a successful login.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Login authenticates the credentials and issues a bearer token for the
// principal. Wrong username and wrong password are indistinguishable.
func (s *Service) Login(
	ctx context.Context,
	handle string,
	secret string,
) (
	*IssuedToken,
	error,
) {
	principal, err := s.Authenticate(ctx, handle, secret)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.LoginTotal.WithLabelValues(metrics.OutcomeInvalidCredentials).Inc()
		} else {
			metrics.LoginTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	token, err := s.tokens.Issue(principal.Username())
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	expiration, err := s.tokens.ExpirationOf(token)
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: issued token unreadable: %v", ErrInternal, err)
	}

	metrics.LoginTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return &IssuedToken{
		Token:     token,
		ExpiresAt: expiration,
	}, nil
}

// Authenticate checks a username/password pair against the stored bcrypt
// hash and returns the matching principal, or ErrInvalidCredentials.
func (s *Service) Authenticate(
	ctx context.Context,
	handle string,
	secret string,
) (
	*identity.Principal,
	error,
) {
	principal, err := s.identityStore.FindByUsername(ctx, handle)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			// burn a comparison so unknown users cost the same as known ones
			_ = bcrypt.CompareHashAndPassword(s.dummySecret(), []byte(secret))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: failed to retrieve secret: %v", ErrInternal, err)
	}

	err = bcrypt.CompareHashAndPassword(principal.Secret, []byte(secret))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return principal, nil
}

func (s *Service) dummySecret() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskgate-dummy-secret"), s.passwordCost)
	})
	return s.dummyHash
}

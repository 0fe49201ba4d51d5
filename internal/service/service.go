// Package service implements the business logic behind the public
// endpoints: account registration, credential authentication and login.
package service

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"git.sr.ht/~jakintosh/taskgate/pkg/tokens"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternal           = errors.New("internal error")
	ErrHandleExists       = errors.New("handle already exists")
	ErrInvalidHandle      = errors.New("invalid handle")
	ErrInvalidPassword    = errors.New("invalid password")
)

// PasswordMode controls bcrypt cost for password hashing.
// Use PasswordModeProduction for real deployments and PasswordModeTesting only in tests.
type PasswordMode int

const (
	// PasswordModeProduction uses bcrypt.DefaultCost (10) unless overridden
	// with WithPasswordCost.
	PasswordModeProduction PasswordMode = iota
	// PasswordModeTesting uses bcrypt.MinCost (4) for fast test execution.
	// WARNING: This mode will panic if used outside of go test.
	PasswordModeTesting
)

// Cost returns the bcrypt cost for this mode.
// Panics if PasswordModeTesting is used outside of a test binary.
func (m PasswordMode) Cost() int {
	switch m {
	case PasswordModeTesting:
		if !testing.Testing() {
			panic("service: PasswordModeTesting used outside of test environment")
		}
		slog.Warn("using insecure password hashing (testing mode)")
		return bcrypt.MinCost
	default:
		return bcrypt.DefaultCost
	}
}

// Service coordinates registration and login. It depends on an
// IdentityStore for persistence and a token service for issuance.
type Service struct {
	identityStore IdentityStore
	tokens        *tokens.Service
	passwordCost  int

	dummyOnce sync.Once
	dummyHash []byte
}

type Option func(*Service)

// WithPasswordCost overrides the bcrypt cost chosen by the password mode.
// Costs outside bcrypt's accepted range are ignored.
func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.passwordCost = cost
		}
	}
}

func New(
	identityStore IdentityStore,
	tokenService *tokens.Service,
	passwordMode PasswordMode,
	opts ...Option,
) *Service {
	s := &Service{
		identityStore: identityStore,
		tokens:        tokenService,
		passwordCost:  passwordMode.Cost(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Tokens() *tokens.Service {
	return s.tokens
}

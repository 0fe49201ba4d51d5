package tokens

import (
	"fmt"
	"time"

	"git.sr.ht/~jakintosh/taskgate/pkg/clock"
)

// ValidityWindow is the fixed lifetime of every issued token.
const ValidityWindow = 48 * time.Hour

// Principal is an identity a token can be checked against.
type Principal interface {
	Username() string
}

// Service issues tokens for subjects and answers questions about presented
// tokens. It holds no per-token state and is safe for concurrent use.
type Service struct {
	keys  *KeyHolder
	clock clock.Clock
}

type Option func(*Service)

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func NewService(keys *KeyHolder, opts ...Option) *Service {
	s := &Service{
		keys:  keys,
		clock: clock.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue returns a token for subject valid for ValidityWindow from now.
func (s *Service) Issue(subject string) (string, error) {
	return s.IssueWithClaims(subject, nil)
}

// IssueWithClaims is Issue with additional application claims embedded.
// The issue time is truncated to whole seconds, the precision the token
// carries, so the encoded claims are exactly the issued ones.
func (s *Service) IssueWithClaims(
	subject string,
	extra map[string]any,
) (
	string,
	error,
) {
	now := s.clock.Now().Truncate(time.Second)
	claims := ClaimSet{
		Subject:    subject,
		IssuedAt:   now,
		Expiration: now.Add(ValidityWindow),
		Extra:      extra,
	}
	encoded, err := Encode(claims, s.keys.Key())
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return encoded, nil
}

// Claims decodes token and returns its full claim set.
func (s *Service) Claims(token string) (*ClaimSet, error) {
	return Decode(token, s.keys.Key())
}

func (s *Service) SubjectOf(token string) (string, error) {
	claims, err := s.Claims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) ExpirationOf(token string) (time.Time, error) {
	claims, err := s.Claims(token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.Expiration, nil
}

func (s *Service) IssuedAtOf(token string) (time.Time, error) {
	claims, err := s.Claims(token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.IssuedAt, nil
}

// ClaimOf returns a single named claim, or ErrClaimNotFound.
func (s *Service) ClaimOf(token string, name string) (any, error) {
	claims, err := s.Claims(token)
	if err != nil {
		return nil, err
	}
	value, ok := claims.Claim(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClaimNotFound, name)
	}
	return value, nil
}

// IsExpired reports whether the token's expiration has been reached.
func (s *Service) IsExpired(token string) (bool, error) {
	expiration, err := s.ExpirationOf(token)
	if err != nil {
		return false, err
	}
	return s.expired(expiration), nil
}

func (s *Service) expired(expiration time.Time) bool {
	return !s.clock.Now().Before(expiration)
}

// Verify explains why token is not currently usable for principal. It
// returns a decode error, ErrSubjectMismatch, ErrTokenExpired, or nil.
func (s *Service) Verify(token string, principal Principal) error {
	claims, err := s.Claims(token)
	if err != nil {
		return err
	}
	if principal == nil || claims.Subject != principal.Username() {
		return ErrSubjectMismatch
	}
	if s.expired(claims.Expiration) {
		return ErrTokenExpired
	}
	return nil
}

// Validate is true iff token names principal and has not expired.
func (s *Service) Validate(token string, principal Principal) bool {
	return s.Verify(token, principal) == nil
}

package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the only signing algorithm this package issues or accepts.
const Algorithm = "HS256"

var (
	ErrMalformedToken   = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token bad signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrSubjectMismatch  = errors.New("token subject mismatch")
	ErrClaimNotFound    = errors.New("token claim not found")
)

// DecodeError is returned by Decode. It unwraps to ErrMalformedToken or
// ErrSignatureInvalid, and carries a Context string describing the failure
// that is safe to log: it never includes the token or its claims.
type DecodeError struct {
	context string
	err     error
}

func (e *DecodeError) Context() string { return e.context }
func (e *DecodeError) Error() string   { return e.err.Error() }
func (e *DecodeError) Unwrap() error   { return e.err }

func malformed(format string, args ...any) *DecodeError {
	return &DecodeError{
		context: fmt.Sprintf(format, args...),
		err:     ErrMalformedToken,
	}
}

// ClaimSet is the decoded payload of a token. Subject, IssuedAt and
// Expiration are always present on issued tokens; Extra holds any
// application claims.
type ClaimSet struct {
	Subject    string
	IssuedAt   time.Time
	Expiration time.Time
	Extra      map[string]any
}

// Claim returns the named claim. The registered names "sub", "iat" and
// "exp" resolve to the typed fields.
func (c *ClaimSet) Claim(name string) (any, bool) {
	switch name {
	case claimSubject:
		return c.Subject, true
	case claimIssuedAt:
		return c.IssuedAt, true
	case claimExpiration:
		return c.Expiration, true
	}
	v, ok := c.Extra[name]
	return v, ok
}

const (
	claimSubject    = "sub"
	claimIssuedAt   = "iat"
	claimExpiration = "exp"
)

func isRegisteredClaim(name string) bool {
	return name == claimSubject || name == claimIssuedAt || name == claimExpiration
}

// parser verifies HS256 signatures only. Temporal claims are left to the
// caller: a correctly signed but expired token still decodes. Segments must
// be canonical base64url, so every edit to the signature text changes the
// signature.
var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{Algorithm}),
	jwt.WithoutClaimsValidation(),
	jwt.WithStrictDecoding(),
)

// Encode signs claims with key and returns the compact
// header.payload.signature form. Extra claims that collide with the
// registered names are ignored.
func Encode(claims ClaimSet, key *SigningKey) (string, error) {
	mapClaims := jwt.MapClaims{}
	for name, value := range claims.Extra {
		if isRegisteredClaim(name) {
			continue
		}
		mapClaims[name] = value
	}
	mapClaims[claimSubject] = claims.Subject
	mapClaims[claimIssuedAt] = jwt.NewNumericDate(claims.IssuedAt)
	mapClaims[claimExpiration] = jwt.NewNumericDate(claims.Expiration)

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims).
		SignedString(key.bytes())
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return encoded, nil
}

// Decode verifies the signature of token under key and returns its claims.
// It fails with ErrSignatureInvalid when the MAC does not match (including
// a token declaring any algorithm other than HS256) and with
// ErrMalformedToken when the token is not three base64url JSON segments or
// lacks a subject or expiration. Expiration is not checked here.
func Decode(token string, key *SigningKey) (*ClaimSet, error) {
	parsed, err := parser.Parse(token, func(*jwt.Token) (any, error) {
		return key.bytes(), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || signatureUndecodable(parsed, err) {
			return nil, &DecodeError{
				context: fmt.Sprintf("token signature illegal: %v", err),
				err:     ErrSignatureInvalid,
			}
		}
		return nil, malformed("token malformed: %v", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, malformed("token claims have unexpected type %T", parsed.Claims)
	}
	return claimSetFromMap(mapClaims)
}

// signatureUndecodable reports whether the header and payload parsed but the
// signature segment is not valid base64url. The parser decodes the signature
// last, so a malformed error with the signing method already resolved can
// only come from the third segment.
func signatureUndecodable(parsed *jwt.Token, err error) bool {
	return errors.Is(err, jwt.ErrTokenMalformed) && parsed != nil && parsed.Method != nil
}

func claimSetFromMap(mapClaims jwt.MapClaims) (*ClaimSet, error) {
	rawSubject, ok := mapClaims[claimSubject]
	if !ok {
		return nil, malformed("token claims missing subject")
	}
	subject, ok := rawSubject.(string)
	if !ok {
		return nil, malformed("token subject is %T, not a string", rawSubject)
	}

	expiration, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, malformed("token expiration invalid: %v", err)
	}
	if expiration == nil {
		return nil, malformed("token claims missing expiration")
	}

	issuedAt, err := mapClaims.GetIssuedAt()
	if err != nil {
		return nil, malformed("token issued-at invalid: %v", err)
	}

	claims := &ClaimSet{
		Subject:    subject,
		Expiration: expiration.Time,
	}
	if issuedAt != nil {
		claims.IssuedAt = issuedAt.Time
	}
	for name, value := range mapClaims {
		if isRegisteredClaim(name) {
			continue
		}
		if claims.Extra == nil {
			claims.Extra = make(map[string]any)
		}
		claims.Extra[name] = value
	}
	return claims, nil
}

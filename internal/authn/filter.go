// Package authn identifies the caller of each request from its bearer
// token. It never rejects a request: failures leave the request anonymous
// and access decisions are left to the route policy.
package authn

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"git.sr.ht/~jakintosh/taskgate/internal/identity"
	"git.sr.ht/~jakintosh/taskgate/internal/metrics"
	"git.sr.ht/~jakintosh/taskgate/pkg/tokens"
)

const bearerPrefix = "Bearer "

// Filter resolves bearer tokens to principals.
type Filter struct {
	tokens *tokens.Service
	users  identity.UserDetails
	logger *slog.Logger
}

func NewFilter(
	tokenService *tokens.Service,
	users identity.UserDetails,
	logger *slog.Logger,
) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		tokens: tokenService,
		users:  users,
		logger: logger,
	}
}

// Middleware runs Identify on every request and binds the principal to the
// request context when one is found. It always calls next.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, token, outcome := f.Identify(r)
		metrics.AuthFilterTotal.WithLabelValues(outcome).Inc()

		switch outcome {
		case metrics.OutcomeAuthenticated:
			f.logger.Debug("request authenticated",
				"subject", principal.Username(),
				"path", r.URL.Path,
			)
			r = r.WithContext(WithPrincipal(r.Context(), principal, token))
		case metrics.OutcomeNoToken:
		default:
			f.logger.Info("bearer token rejected, continuing anonymously",
				"reason", outcome,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
		}

		next.ServeHTTP(w, r)
	})
}

// Identify attempts to authenticate r. It returns the principal and token
// on success; otherwise a nil principal and the reason as a metrics
// outcome label.
func (f *Filter) Identify(r *http.Request) (*identity.Principal, string, string) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, "", metrics.OutcomeNoToken
	}

	subject, err := f.tokens.SubjectOf(token)
	if err != nil {
		if errors.Is(err, tokens.ErrSignatureInvalid) {
			return nil, "", metrics.OutcomeBadSignature
		}
		return nil, "", metrics.OutcomeMalformed
	}

	principal, err := f.users.FindByUsername(r.Context(), subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, "", metrics.OutcomeUnknownUser
		}
		f.logger.Error("user lookup failed", "error", err)
		return nil, "", metrics.OutcomeLookupError
	}
	if principal == nil {
		return nil, "", metrics.OutcomeUnknownUser
	}

	if !f.tokens.Validate(token, principal) {
		return nil, "", metrics.OutcomeInvalid
	}

	return principal, token, metrics.OutcomeAuthenticated
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

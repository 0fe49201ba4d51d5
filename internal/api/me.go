package api

import (
	"errors"
	"net/http"
	"time"

	"git.sr.ht/~jakintosh/taskgate/internal/authn"
)

type MeResponse struct {
	Handle    string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Me reports who the caller is authenticated as. It only runs behind the
// policy gate, so a missing principal is a wiring bug.
func (a *API) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authn.PrincipalFromContext(r.Context())
		if !ok {
			a.writeError(w, r, errors.New("no principal bound to protected route"))
			return
		}
		token, _ := authn.TokenFromContext(r.Context())

		expiration, err := a.service.Tokens().ExpirationOf(token)
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		returnJson(MeResponse{
			Handle:    principal.Username(),
			ExpiresAt: expiration.UTC(),
		}, w)
	}
}

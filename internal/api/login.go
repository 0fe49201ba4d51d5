package api

import (
	"net/http"
	"time"
)

type LoginRequest struct {
	Handle   string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a *API) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if ok := decodeRequest(a, &req, w, r); !ok {
			return
		}

		issued, err := a.service.Login(r.Context(), req.Handle, req.Password)
		if err != nil {
			a.logApiErr(r, "login failed", "username", req.Handle, "error", err)
			a.writeError(w, r, err)
			return
		}

		returnJson(LoginResponse{
			Token:     issued.Token,
			ExpiresAt: issued.ExpiresAt.UTC(),
		}, w)
	}
}

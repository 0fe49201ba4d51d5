package api

import (
	"net/http"
)

type RegistrationRequest struct {
	Handle   string `json:"username"`
	Password string `json:"password"`
}

type RegistrationResponse struct {
	Handle string `json:"username"`
}

func (a *API) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegistrationRequest
		if ok := decodeRequest(a, &req, w, r); !ok {
			return
		}

		err := a.service.Register(r.Context(), req.Handle, req.Password)
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		a.logger.Info("user registered", "username", req.Handle)
		returnJson(RegistrationResponse{Handle: req.Handle}, w)
	}
}

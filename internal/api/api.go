// Package api exposes the taskgate HTTP surface: the public account
// endpoints, the protected routes and the middleware chain in front of
// them.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"git.sr.ht/~jakintosh/taskgate/internal/authn"
	"git.sr.ht/~jakintosh/taskgate/internal/policy"
	"git.sr.ht/~jakintosh/taskgate/internal/service"
)

type API struct {
	service *service.Service
	filter  *authn.Filter
	policy  *policy.Table
	logger  *slog.Logger
}

func New(
	svc *service.Service,
	filter *authn.Filter,
	table *policy.Table,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		service: svc,
		filter:  filter,
		policy:  table,
		logger:  logger,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func decodeRequest[T any](a *API, req *T, w http.ResponseWriter, r *http.Request) bool {
	err := json.NewDecoder(r.Body).Decode(req)
	if err != nil {
		a.logApiErr(r, "bad json request", "error", err)
		writeJsonError(w, http.StatusBadRequest, "bad request")
		return false
	}
	return true
}

func returnJson(data any, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}

func writeJsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// writeError maps service errors onto HTTP responses. Credential failures
// get a fixed body that does not say which part was wrong.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJsonError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrHandleExists):
		writeJsonError(w, http.StatusConflict, "username already taken")
	case errors.Is(err, service.ErrInvalidHandle):
		writeJsonError(w, http.StatusBadRequest, "invalid username")
	case errors.Is(err, service.ErrInvalidPassword):
		writeJsonError(w, http.StatusBadRequest, "invalid password")
	default:
		a.logApiErr(r, "internal error", "error", err)
		writeJsonError(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) logApiErr(r *http.Request, msg string, args ...any) {
	args = append([]any{
		"method", r.Method,
		"uri", r.RequestURI,
		"request_id", RequestIDFromContext(r.Context()),
	}, args...)
	a.logger.Warn(msg, args...)
}

package api

import (
	"net/http"

	"git.sr.ht/~jakintosh/taskgate/internal/metrics"
	"github.com/gorilla/mux"
)

// Router builds the API handler. Middleware runs in order: request id,
// access log, metrics, authentication filter, route policy gate.
func (a *API) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/createUser", a.CreateUser()).Methods(http.MethodPost)
	r.HandleFunc("/login", a.Login()).Methods(http.MethodPost)
	r.HandleFunc("/me", a.Me()).Methods(http.MethodGet)

	// catch-all so unmatched paths still pass through the middleware chain
	r.PathPrefix("/").HandlerFunc(a.notFound)

	r.Use(
		requestID,
		a.accessLog,
		metrics.Middleware,
		a.filter.Middleware,
		a.policy.Gate,
	)
	return r
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	writeJsonError(w, http.StatusNotFound, "not found")
}

// Package metrics holds the Prometheus instrumentation for taskgate.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Filter outcomes.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeNoToken       = "no_token"
	OutcomeMalformed     = "malformed"
	OutcomeBadSignature  = "bad_signature"
	OutcomeUnknownUser   = "unknown_user"
	OutcomeLookupError   = "lookup_error"
	OutcomeInvalid       = "invalid"
)

// Login outcomes.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

var (
	// AuthFilterTotal counts filter decisions by outcome.
	AuthFilterTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskgate_auth_filter_total",
			Help: "Authentication filter outcomes",
		},
		[]string{"outcome"},
	)

	// LoginTotal counts login attempts by outcome.
	LoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskgate_login_total",
			Help: "Login attempts",
		},
		[]string{"outcome"},
	)

	// PolicyRejectedTotal counts anonymous requests refused by the route policy.
	PolicyRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskgate_policy_rejected_total",
			Help: "Requests rejected for missing authentication",
		},
	)

	// RequestsTotal counts HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskgate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskgate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		AuthFilterTotal,
		LoginTotal,
		PolicyRejectedTotal,
		RequestsTotal,
		RequestDuration,
	)
}

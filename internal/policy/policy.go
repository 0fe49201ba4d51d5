// Package policy decides, per route, whether a request needs an
// authenticated principal.
package policy

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path"

	"git.sr.ht/~jakintosh/taskgate/internal/authn"
	"git.sr.ht/~jakintosh/taskgate/internal/metrics"
)

type Requirement int

const (
	Authenticated Requirement = iota
	Public
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	default:
		return "authenticated"
	}
}

// Rule pairs a route pattern with its requirement. "*" matches every path;
// other patterns use path.Match syntax.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

func (r Rule) matches(urlPath string) bool {
	if r.Pattern == "*" {
		return true
	}
	ok, err := path.Match(r.Pattern, urlPath)
	return err == nil && ok
}

// DefaultRules is the taskgate route table.
var DefaultRules = []Rule{
	{Pattern: "/createUser", Requirement: Public},
	{Pattern: "/login", Requirement: Public},
	{Pattern: "*", Requirement: Authenticated},
}

// Table is an ordered rule list; the first matching rule wins.
type Table struct {
	rules  []Rule
	logger *slog.Logger
}

func NewTable(rules []Rule, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		rules:  append([]Rule(nil), rules...),
		logger: logger,
	}
}

// Requirement returns the requirement for urlPath. Paths no rule matches
// require authentication.
func (t *Table) Requirement(urlPath string) Requirement {
	for _, rule := range t.rules {
		if rule.matches(urlPath) {
			return rule.Requirement
		}
	}
	return Authenticated
}

type errorResponse struct {
	Error string `json:"error"`
}

// Gate rejects anonymous requests to authenticated routes with 401 before
// they reach a handler. It must run after the authentication filter.
func (t *Table) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.Requirement(r.URL.Path) == Public || authn.IsAuthenticated(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		metrics.PolicyRejectedTotal.Inc()
		t.logger.Warn("unauthenticated access rejected",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("WWW-Authenticate", `Bearer realm="taskgate"`)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "authentication required"})
	})
}

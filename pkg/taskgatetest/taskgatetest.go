// Package taskgatetest runs an in-process taskgate server and mints tokens
// for tests of code that sits behind taskgate.
package taskgatetest

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"git.sr.ht/~jakintosh/taskgate/internal/api"
	"git.sr.ht/~jakintosh/taskgate/internal/authn"
	"git.sr.ht/~jakintosh/taskgate/internal/database"
	"git.sr.ht/~jakintosh/taskgate/internal/policy"
	"git.sr.ht/~jakintosh/taskgate/internal/service"
	"git.sr.ht/~jakintosh/taskgate/pkg/clock"
	"git.sr.ht/~jakintosh/taskgate/pkg/tokens"
)

// Keys holds a signing secret for testing.
type Keys struct {
	Secret string
	Holder *tokens.KeyHolder
}

// NewKeys generates a fresh random signing secret.
func NewKeys() (*Keys, error) {
	secret, err := tokens.GenerateSecret()
	if err != nil {
		return nil, err
	}
	holder, err := tokens.NewKeyHolder(secret)
	if err != nil {
		return nil, err
	}
	return &Keys{Secret: secret, Holder: holder}, nil
}

// MintToken issues a token for subject as of the time c reports.
func MintToken(keys *Keys, subject string, c clock.Clock) (string, error) {
	return tokens.NewService(keys.Holder, tokens.WithClock(c)).Issue(subject)
}

// Authorize adds a bearer Authorization header to r.
func Authorize(r *http.Request, token string) {
	r.Header.Set("Authorization", "Bearer "+token)
}

// User holds test user credentials.
type User struct {
	Handle   string
	Password string
}

// Config holds configuration for starting the test harness.
type Config struct {
	Users []User
	// Start is the initial clock time; zero means now.
	Start time.Time
	// Logger receives server logs; nil discards them.
	Logger *slog.Logger
}

// Harness is a running taskgate server backed by an in-memory database.
type Harness struct {
	BaseURL string
	Keys    *Keys
	Clock   *clock.FakeClock
	Users   []User
	Tokens  *tokens.Service

	server *httptest.Server
}

// Start launches a server and registers cfg.Users. The server is closed
// with t.Cleanup.
func Start(t testing.TB, cfg Config) *Harness {
	t.Helper()

	keys, err := NewKeys()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	store, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	fake := clock.Fake(start.Truncate(time.Second))

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tokenService := tokens.NewService(keys.Holder, tokens.WithClock(fake))
	svc := service.New(store, tokenService, service.PasswordModeTesting)
	for _, u := range cfg.Users {
		if err := svc.Register(context.Background(), u.Handle, u.Password); err != nil {
			_ = store.Close()
			t.Fatalf("failed to register %q: %v", u.Handle, err)
		}
	}

	filter := authn.NewFilter(tokenService, store, logger)
	a := api.New(svc, filter, policy.NewTable(policy.DefaultRules, logger), logger)
	server := httptest.NewServer(a.Router())

	t.Cleanup(func() {
		server.Close()
		_ = store.Close()
	})

	return &Harness{
		BaseURL: server.URL,
		Keys:    keys,
		Clock:   fake,
		Users:   cfg.Users,
		Tokens:  tokenService,
		server:  server,
	}
}

// Client returns an HTTP client for the harness server.
func (h *Harness) Client() *http.Client {
	return h.server.Client()
}

// Token mints a token for subject at the harness clock's current time.
func (h *Harness) Token(t testing.TB, subject string) string {
	t.Helper()
	token, err := MintToken(h.Keys, subject, h.Clock)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

// Package testutil provides test environment setup and utilities for internal package tests.
package testutil

import (
	"context"
	"net/http"
	"sync"
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

// Epoch is the fixed start time of every test clock.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	sharedKeys     *tokens.KeyHolder
	sharedKeysOnce sync.Once
)

// getSharedKeys returns a cached signing key for tests.
func getSharedKeys() *tokens.KeyHolder {
	sharedKeysOnce.Do(func() {
		secret, err := tokens.GenerateSecret()
		if err != nil {
			panic("failed to generate shared signing secret: " + err.Error())
		}
		sharedKeys, err = tokens.NewKeyHolder(secret)
		if err != nil {
			panic("failed to build shared key holder: " + err.Error())
		}
	})
	return sharedKeys
}

// TestEnv provides all dependencies needed for testing
type TestEnv struct {
	DB      *database.SQLiteStore
	Clock   *clock.FakeClock
	Tokens  *tokens.Service
	Service *service.Service
	Router  http.Handler
}

// SetupTestEnv creates an isolated test environment with in-memory SQLite
// and a fake clock frozen at Epoch.
func SetupTestEnv(
	t *testing.T,
) *TestEnv {
	t.Helper()

	// create in-memory SQLite database
	db, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// use cached signing key (generated once across all tests)
	fake := clock.Fake(Epoch)
	tokenService := tokens.NewService(getSharedKeys(), tokens.WithClock(fake))

	svc := service.New(db, tokenService, service.PasswordModeTesting)

	// setup cleanup
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &TestEnv{
		DB:      db,
		Clock:   fake,
		Tokens:  tokenService,
		Service: svc,
	}
}

// SetupTestEnvWithRouter creates TestEnv and configures the API router
func SetupTestEnvWithRouter(
	t *testing.T,
) *TestEnv {
	t.Helper()
	env := SetupTestEnv(t)
	filter := authn.NewFilter(env.Tokens, env.DB, nil)
	a := api.New(env.Service, filter, policy.NewTable(policy.DefaultRules, nil), nil)
	env.Router = a.Router()
	return env
}

// RegisterTestUser creates a test user in the database
func (env *TestEnv) RegisterTestUser(
	t *testing.T,
	handle string,
	password string,
) {
	t.Helper()
	if err := env.Service.Register(context.Background(), handle, password); err != nil {
		t.Fatalf("failed to register test user: %v", err)
	}
}

// IssueTestToken creates a bearer token for subject at the current test clock time
func (env *TestEnv) IssueTestToken(
	t *testing.T,
	subject string,
) string {
	t.Helper()
	token, err := env.Tokens.Issue(subject)
	if err != nil {
		t.Fatalf("failed to issue test token: %v", err)
	}
	return token
}

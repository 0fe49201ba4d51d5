package taskgatetest_test

import (
	"net/http"
	"testing"
	"time"

	"git.sr.ht/~jakintosh/taskgate/pkg/clock"
	"git.sr.ht/~jakintosh/taskgate/pkg/taskgatetest"
	"git.sr.ht/~jakintosh/taskgate/pkg/tokens"
)

func TestMintToken(t *testing.T) {
	t.Parallel()
	keys, err := taskgatetest.NewKeys()
	if err != nil {
		t.Fatalf("NewKeys failed: %v", err)
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	token, err := taskgatetest.MintToken(keys, "alice", clock.Fake(at))
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}

	// minted token verifies under the same keys
	svc := tokens.NewService(keys.Holder, tokens.WithClock(clock.Fake(at)))
	subject, err := svc.SubjectOf(token)
	if err != nil || subject != "alice" {
		t.Errorf("SubjectOf = %q, %v", subject, err)
	}
	expiration, _ := svc.ExpirationOf(token)
	if !expiration.Equal(at.Add(tokens.ValidityWindow)) {
		t.Errorf("expiration = %v", expiration)
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/me", nil)

	// header uses the bearer scheme
	taskgatetest.Authorize(req, "abc")
	if got := req.Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestHarness(t *testing.T) {
	t.Parallel()
	h := taskgatetest.Start(t, taskgatetest.Config{
		Users: []taskgatetest.User{{Handle: "alice", Password: "password"}},
	})

	get := func(token string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, h.BaseURL+"/me", nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		if token != "" {
			taskgatetest.Authorize(req, token)
		}
		res, err := h.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		return res.StatusCode
	}

	// anonymous request is rejected
	if code := get(""); code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want 401", code)
	}

	// harness token for a registered user is accepted
	token := h.Token(t, "alice")
	if code := get(token); code != http.StatusOK {
		t.Errorf("authenticated: got %d, want 200", code)
	}

	// advancing the harness clock expires it
	h.Clock.Advance(tokens.ValidityWindow)
	if code := get(token); code != http.StatusUnauthorized {
		t.Errorf("expired: got %d, want 401", code)
	}
}

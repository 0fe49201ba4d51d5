package main

import (
	"bytes"
	"strings"
	"testing"

	"git.sr.ht/~jakintosh/taskgate/pkg/taskgatetest"
)

func TestRun_RegisterLoginMe(t *testing.T) {
	t.Parallel()
	h := taskgatetest.Start(t, taskgatetest.Config{})
	base := []string{"--url", h.BaseURL, "-u", "alice", "-p", "password123"}

	// register prints the new username
	var out bytes.Buffer
	if err := run(append(base, "register"), &out); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !strings.Contains(out.String(), "created alice") {
		t.Errorf("unexpected output: %q", out.String())
	}

	// login prints a token
	out.Reset()
	if err := run(append(base, "login"), &out); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	token := strings.TrimSpace(out.String())
	if strings.Count(token, ".") != 2 {
		t.Fatalf("login did not print a token: %q", token)
	}

	// me with the token prints the username
	out.Reset()
	if err := run([]string{"--url", h.BaseURL, "--token", token, "me"}, &out); err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "alice") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()
	h := taskgatetest.Start(t, taskgatetest.Config{})

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"--url", h.BaseURL}},
		{"unknown command", []string{"--url", h.BaseURL, "dance"}},
		{"me without token", []string{"--url", h.BaseURL, "--token", "", "me"}},
		{"bad login", []string{"--url", h.BaseURL, "-u", "ghost", "-p", "x", "login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := run(tt.args, &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

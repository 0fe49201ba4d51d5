package database_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"git.sr.ht/~jakintosh/taskgate/internal/database"
	"git.sr.ht/~jakintosh/taskgate/internal/identity"
)

// exerciseStore runs the behaviour every Store must share. handles are
// prefixed so runs against a shared database do not collide.
func exerciseStore(t *testing.T, store database.Store, prefix string) {
	t.Helper()
	ctx := context.Background()
	alice := prefix + "alice"
	bob := prefix + "bob"

	// inserting a new identity succeeds
	if err := store.InsertIdentity(ctx, alice, []byte("alice-secret")); err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}
	if err := store.InsertIdentity(ctx, bob, []byte{0x00, 0x01, 0xff}); err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}

	// duplicate handle reports ErrDuplicate
	err := store.InsertIdentity(ctx, alice, []byte("other"))
	if !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	// each principal is found with its own secret
	principal, err := store.FindByUsername(ctx, alice)
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if principal.Username() != alice || string(principal.Secret) != "alice-secret" {
		t.Errorf("unexpected principal: %q %q", principal.Handle, principal.Secret)
	}

	principal, err = store.FindByUsername(ctx, bob)
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if !bytes.Equal(principal.Secret, []byte{0x00, 0x01, 0xff}) {
		t.Errorf("binary secret mismatch: %x", principal.Secret)
	}

	// unknown handle reports ErrNotFound
	_, err = store.FindByUsername(ctx, prefix+"unknown")
	if !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("expected identity.ErrNotFound, got %v", err)
	}

	// lookups are case sensitive
	_, err = store.FindByUsername(ctx, prefix+"ALICE")
	if !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("expected identity.ErrNotFound, got %v", err)
	}

	// store is reachable
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

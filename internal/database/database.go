// Package database provides the user-record stores: SQLite for single-node
// deployments and PostgreSQL for shared ones.
package database

import (
	"context"
	"errors"
	"fmt"

	"git.sr.ht/~jakintosh/taskgate/internal/identity"
)

var ErrDuplicate = errors.New("record already exists")

// Store is the persistence surface both backends implement.
type Store interface {
	identity.UserDetails
	InsertIdentity(ctx context.Context, handle string, secret []byte) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open builds the store named by driver.
func Open(
	ctx context.Context,
	driver string,
	path string,
	dsn string,
	maxConns int32,
) (
	Store,
	error,
) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteStore(path)
	case "postgres":
		return NewPostgresStore(ctx, dsn, maxConns)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func notFound(handle string) error {
	return fmt.Errorf("%w: %s", identity.ErrNotFound, handle)
}

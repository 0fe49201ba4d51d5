package database

import (
	"context"
	"errors"
	"fmt"

	"git.sr.ht/~jakintosh/taskgate/internal/identity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// PostgresStore keeps identities in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(
	ctx context.Context,
	dsn string,
	maxConns int32,
) (
	*PostgresStore,
	error,
) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS identity (
			id      BIGSERIAL PRIMARY KEY,
			handle  TEXT NOT NULL UNIQUE,
			secret  BYTEA NOT NULL
		);`,
	); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to init 'identity' table schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) InsertIdentity(
	ctx context.Context,
	handle string,
	secret []byte,
) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identity (handle, secret)
		VALUES ($1, $2)`,
		handle,
		secret,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicate, handle)
		}
		return fmt.Errorf("inserting identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUsername(
	ctx context.Context,
	username string,
) (
	*identity.Principal,
	error,
) {
	var principal identity.Principal
	err := s.pool.QueryRow(ctx, `
		SELECT handle, secret
		FROM identity
		WHERE handle = $1`,
		username,
	).Scan(&principal.Handle, &principal.Secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(username)
		}
		return nil, fmt.Errorf("querying identity: %w", err)
	}
	return &principal, nil
}

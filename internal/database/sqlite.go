package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"git.sr.ht/~jakintosh/taskgate/internal/identity"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init database: %v", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func initSchema(db *sql.DB) error {
	return initTable(db, "identity", `
		CREATE TABLE IF NOT EXISTS identity (
			id          INTEGER PRIMARY KEY,
			handle      TEXT NOT NULL UNIQUE,
			secret      BLOB NOT NULL
		);`,
	)
}

func initTable(
	db *sql.DB,
	name string,
	sql string,
) error {
	if _, err := db.Exec(sql); err != nil {
		return fmt.Errorf("failed to init '%s' table schema: %v", name, err)
	}
	return nil
}

func (s *SQLiteStore) InsertIdentity(
	ctx context.Context,
	handle string,
	secret []byte,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identity (handle, secret)
		VALUES (?1, ?2);`,
		handle,
		secret,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, handle)
		}
		return fmt.Errorf("failed to insert identity: %v", err)
	}
	return nil
}

func (s *SQLiteStore) FindByUsername(
	ctx context.Context,
	username string,
) (
	*identity.Principal,
	error,
) {
	row := s.db.QueryRowContext(ctx, `
		SELECT handle, secret
		FROM identity i
		WHERE i.handle=?1;`,
		username,
	)

	var principal identity.Principal
	if err := row.Scan(&principal.Handle, &principal.Secret); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(username)
		}
		return nil, fmt.Errorf("failed to query identity: %v", err)
	}
	return &principal, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// Package postgres provides a PostgreSQL-backed profile store for deployments
// that already run a database and would rather not add Redis.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/target/tbrd-ui/internal/ports"
)

var _ ports.Storage = (*Storage)(nil)

// ErrSchemaMissing means the profile_storage table has not been created yet.
var ErrSchemaMissing = errors.New("profile_storage table missing: run migrations")

// Storage persists profile keys in the profile_storage table.
type Storage struct {
	db *sql.DB
}

// NewStorage wraps an open database handle.
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Get(ctx context.Context, profile, key string) (string, bool, error) {
	if profile == "" {
		return "", false, nil
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM profile_storage WHERE profile_id = $1 AND key = $2`,
		profile, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapErr("get", err)
	}
	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, profile, key, value string) error {
	if profile == "" {
		return errors.New("profile cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile_storage (profile_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		profile, key, value,
	)
	if err != nil {
		return mapErr("set", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, profile, key string) error {
	if profile == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM profile_storage WHERE profile_id = $1 AND key = $2`, profile, key,
	); err != nil {
		return mapErr("delete", err)
	}
	return nil
}

func mapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("postgres %s: %w", op, ErrSchemaMissing)
	}
	return fmt.Errorf("postgres %s: %w", op, err)
}

package counter

import (
	"context"
	"database/sql"
)

// PostgresStore implements Store on a single-row-per-counter table. All
// mutations are single atomic statements; the value is never read-modify-
// written client side.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) IncrBelow(ctx context.Context, name string, max int64) (bool, error) {
	const query = `
		INSERT INTO shared_counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = shared_counters.value + 1
		WHERE shared_counters.value < $2
		RETURNING value
	`
	var value int64
	err := s.db.QueryRowContext(ctx, query, name, max).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) Decr(ctx context.Context, name string) error {
	const query = `UPDATE shared_counters SET value = GREATEST(value - 1, 0) WHERE name = $1`
	_, err := s.db.ExecContext(ctx, query, name)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, name string) (int64, error) {
	const query = `SELECT value FROM shared_counters WHERE name = $1`
	var value int64
	err := s.db.QueryRowContext(ctx, query, name).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (s *PostgresStore) Reset(ctx context.Context, name string, value int64) error {
	const query = `
		INSERT INTO shared_counters (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := s.db.ExecContext(ctx, query, name, value)
	return err
}

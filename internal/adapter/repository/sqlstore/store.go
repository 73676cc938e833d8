package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/moneyjar/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn binds a querier to a dialect and rewrites placeholders
type conn struct {
	q       querier
	dialect Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, rebind(c.dialect, query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, rebind(c.dialect, query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, rebind(c.dialect, query), args...)
}

// execOne runs a statement that must touch exactly one row; zero rows becomes notFound
func (c conn) execOne(ctx context.Context, op string, notFound error, query string, args ...any) error {
	res, err := c.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// Store implements domain.Store over a SQL database
type Store struct {
	db *DB
}

// NewStore creates a new Store instance
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the connection pool
func (s *Store) Repos() domain.Repositories {
	return repositories(conn{q: s.db.DB, dialect: s.db.Dialect})
}

// InTx runs fn inside a database transaction; it commits when fn returns nil
func (s *Store) InTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(repositories(conn{q: tx, dialect: s.db.Dialect})); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func repositories(c conn) domain.Repositories {
	return domain.Repositories{
		Accounts:     &accountRepository{c},
		Ledger:       &ledgerRepository{c},
		Budgets:      &budgetRepository{c},
		Holdings:     &holdingRepository{c},
		Transactions: &transactionRepository{c},
		Jars:         &jarRepository{c},
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// noRows maps sql.ErrNoRows to notFound and wraps anything else
func noRows(err error, notFound error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// collect scans every row with scan and closes rows
func collect[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

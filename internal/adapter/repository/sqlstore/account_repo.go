package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/moneyjar/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	c conn
}

const accountColumns = `id, user_id, type, name, balance, currency, exchange_rate, include_in_total, created_at`

func scanAccount(s scanner) (*domain.Account, error) {
	var (
		a         domain.Account
		createdAt string
	)
	if err := s.Scan(
		&a.ID,
		&a.UserID,
		&a.Type,
		&a.Name,
		&a.Balance,
		&a.Currency,
		&a.ExchangeRate,
		&a.IncludeInTotal,
		&createdAt,
	); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = t
	return &a, nil
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND user_id = ?`

	a, err := scanAccount(r.c.queryRow(ctx, query, id, userID))
	if err != nil {
		return nil, noRows(err, domain.NotFound("account", id), "get account by ID")
	}
	return a, nil
}

// List retrieves every account of the user ordered by creation time
func (r *accountRepository) List(ctx context.Context, userID string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ? ORDER BY created_at, id`

	rows, err := r.c.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return collect(rows, scanAccount)
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.c.exec(ctx, query,
		a.ID,
		a.UserID,
		a.Type,
		a.Name,
		a.Balance.String(),
		a.Currency,
		a.ExchangeRate.String(),
		a.IncludeInTotal,
		formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// Update persists every mutable field, balance included
func (r *accountRepository) Update(ctx context.Context, a *domain.Account) error {
	query := `
		UPDATE accounts
		SET type = ?, name = ?, balance = ?, currency = ?, exchange_rate = ?, include_in_total = ?
		WHERE id = ? AND user_id = ?
	`
	return r.c.execOne(ctx, "update account", domain.NotFound("account", a.ID), query,
		a.Type,
		a.Name,
		a.Balance.String(),
		a.Currency,
		a.ExchangeRate.String(),
		a.IncludeInTotal,
		a.ID,
		a.UserID,
	)
}

// Delete removes an account
func (r *accountRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.c.execOne(ctx, "delete account", domain.NotFound("account", id),
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
}

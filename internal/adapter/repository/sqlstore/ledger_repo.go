package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	c conn
}

const ledgerColumns = `id, user_id, type, amount, category, account_id, date, note, kind,
	has_investment, investment_transaction_id, investment_ticker, investment_principal, investment_profit_loss,
	transfer_peer_id, created_at`

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func scanEntry(s scanner) (*domain.LedgerEntry, error) {
	var (
		e             domain.LedgerEntry
		accountID     uuid.NullUUID
		date, created string
		hasLink       bool
		linkTxID      uuid.NullUUID
		ticker        string
		principal     decimal.Decimal
		profitLoss    decimal.Decimal
		peerID        uuid.NullUUID
	)
	if err := s.Scan(
		&e.ID,
		&e.UserID,
		&e.Type,
		&e.Amount,
		&e.Category,
		&accountID,
		&date,
		&e.Note,
		&e.Kind,
		&hasLink,
		&linkTxID,
		&ticker,
		&principal,
		&profitLoss,
		&peerID,
		&created,
	); err != nil {
		return nil, err
	}

	var err error
	if e.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	e.AccountID = uuidPtr(accountID)
	e.TransferPeerID = uuidPtr(peerID)
	if hasLink {
		e.Investment = &domain.InvestmentLink{
			TransactionID: uuidPtr(linkTxID),
			Ticker:        ticker,
			Principal:     principal,
			ProfitLoss:    profitLoss,
		}
	}
	return &e, nil
}

// entryArgs returns the column values of e in ledgerColumns order
func entryArgs(e *domain.LedgerEntry) []any {
	link := domain.InvestmentLink{}
	if e.Investment != nil {
		link = *e.Investment
	}
	return []any{
		e.ID,
		e.UserID,
		string(e.Type),
		e.Amount.String(),
		e.Category,
		nullUUID(e.AccountID),
		formatTime(e.Date),
		e.Note,
		string(e.Kind),
		e.Investment != nil,
		nullUUID(link.TransactionID),
		link.Ticker,
		link.Principal.String(),
		link.ProfitLoss.String(),
		nullUUID(e.TransferPeerID),
		formatTime(e.CreatedAt),
	}
}

// GetByID retrieves a ledger entry by its ID
func (r *ledgerRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = ? AND user_id = ?`

	e, err := scanEntry(r.c.queryRow(ctx, query, id, userID))
	if err != nil {
		return nil, noRows(err, domain.NotFound("ledger entry", id), "get ledger entry by ID")
	}
	return e, nil
}

// List retrieves entries ordered by date, then creation time
func (r *ledgerRepository) List(ctx context.Context, userID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if !filter.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "date < ?")
		args = append(args, formatTime(filter.To))
	}
	if filter.AccountID != nil {
		where = append(where, "account_id = ?")
		args = append(args, *filter.AccountID)
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date, created_at, id`

	rows, err := r.c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return collect(rows, scanEntry)
}

// Create creates a new ledger entry
func (r *ledgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.c.exec(ctx, query, entryArgs(e)...); err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// Update persists every field of the entry except its owner and creation time
func (r *ledgerRepository) Update(ctx context.Context, e *domain.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET type = ?, amount = ?, category = ?, account_id = ?, date = ?, note = ?, kind = ?,
			has_investment = ?, investment_transaction_id = ?, investment_ticker = ?,
			investment_principal = ?, investment_profit_loss = ?, transfer_peer_id = ?
		WHERE id = ? AND user_id = ?
	`
	args := entryArgs(e)
	// drop id, user_id and created_at, then append the key
	args = append(args[2:len(args)-1], e.ID, e.UserID)
	return r.c.execOne(ctx, "update ledger entry", domain.NotFound("ledger entry", e.ID), query, args...)
}

// Delete removes a ledger entry
func (r *ledgerRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.c.execOne(ctx, "delete ledger entry", domain.NotFound("ledger entry", id),
		`DELETE FROM ledger_entries WHERE id = ? AND user_id = ?`, id, userID)
}

// DetachAccount nulls the account reference of every entry pointing at accountID
func (r *ledgerRepository) DetachAccount(ctx context.Context, userID string, accountID uuid.UUID) error {
	query := `UPDATE ledger_entries SET account_id = NULL WHERE user_id = ? AND account_id = ?`
	if _, err := r.c.exec(ctx, query, userID, accountID); err != nil {
		return fmt.Errorf("failed to detach account from ledger entries: %w", err)
	}
	return nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/moneyjar/internal/domain"
)

// holdingRepository implements domain.HoldingRepository
type holdingRepository struct {
	c conn
}

const holdingColumns = `id, user_id, broker_account_id, ticker, name, market, quantity, average_cost, current_price, price_updated_at`

func scanHolding(s scanner) (*domain.InvestmentHolding, error) {
	var (
		h         domain.InvestmentHolding
		updatedAt sql.NullString
	)
	if err := s.Scan(
		&h.ID,
		&h.UserID,
		&h.BrokerAccountID,
		&h.Ticker,
		&h.Name,
		&h.Market,
		&h.Quantity,
		&h.AverageCost,
		&h.CurrentPrice,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	// Parse price_updated_at (nullable)
	if updatedAt.Valid {
		t, err := parseTime(updatedAt.String)
		if err != nil {
			return nil, err
		}
		h.PriceUpdatedAt = &t
	}
	return &h, nil
}

// GetByID retrieves a holding by its ID
func (r *holdingRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.InvestmentHolding, error) {
	query := `SELECT ` + holdingColumns + ` FROM investment_holdings WHERE id = ? AND user_id = ?`

	h, err := scanHolding(r.c.queryRow(ctx, query, id, userID))
	if err != nil {
		return nil, noRows(err, domain.NotFound("holding", id), "get holding by ID")
	}
	return h, nil
}

// GetByPosition retrieves the holding of ticker within brokerAccountID
func (r *holdingRepository) GetByPosition(ctx context.Context, userID string, brokerAccountID uuid.UUID, ticker string) (*domain.InvestmentHolding, error) {
	query := `
		SELECT ` + holdingColumns + ` FROM investment_holdings
		WHERE user_id = ? AND broker_account_id = ? AND ticker = ?
	`
	h, err := scanHolding(r.c.queryRow(ctx, query, userID, brokerAccountID, ticker))
	if err != nil {
		return nil, noRows(err, &domain.ReferenceError{Entity: "holding", ID: ticker}, "get holding by position")
	}
	return h, nil
}

// List retrieves the user's holdings ordered by ticker
func (r *holdingRepository) List(ctx context.Context, userID string) ([]*domain.InvestmentHolding, error) {
	query := `SELECT ` + holdingColumns + ` FROM investment_holdings WHERE user_id = ? ORDER BY ticker, broker_account_id`

	rows, err := r.c.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return collect(rows, scanHolding)
}

// Save inserts the holding or updates it when the ID already exists
func (r *holdingRepository) Save(ctx context.Context, h *domain.InvestmentHolding) error {
	query := `
		INSERT INTO investment_holdings (` + holdingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			market = excluded.market,
			quantity = excluded.quantity,
			average_cost = excluded.average_cost,
			current_price = excluded.current_price,
			price_updated_at = excluded.price_updated_at
		WHERE investment_holdings.user_id = excluded.user_id
	`
	var updatedAt sql.NullString
	if h.PriceUpdatedAt != nil {
		updatedAt = sql.NullString{String: formatTime(*h.PriceUpdatedAt), Valid: true}
	}
	return r.c.execOne(ctx, "save holding", domain.NotFound("holding", h.ID), query,
		h.ID,
		h.UserID,
		h.BrokerAccountID,
		h.Ticker,
		h.Name,
		h.Market,
		h.Quantity.String(),
		h.AverageCost.String(),
		h.CurrentPrice.String(),
		updatedAt,
	)
}

// Delete removes a holding
func (r *holdingRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.c.execOne(ctx, "delete holding", domain.NotFound("holding", id),
		`DELETE FROM investment_holdings WHERE id = ? AND user_id = ?`, id, userID)
}

// transactionRepository implements domain.InvestmentTransactionRepository
type transactionRepository struct {
	c conn
}

const transactionColumns = `id, user_id, holding_id, broker_account_id, payment_account_id, ticker, name, market,
	type, quantity, price_per_share, fees, date, ledger_entry_id, created_at`

func scanTransaction(s scanner) (*domain.InvestmentTransaction, error) {
	var (
		t             domain.InvestmentTransaction
		entryID       uuid.NullUUID
		date, created string
	)
	if err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.HoldingID,
		&t.BrokerAccountID,
		&t.PaymentAccountID,
		&t.Ticker,
		&t.Name,
		&t.Market,
		&t.Type,
		&t.Quantity,
		&t.PricePerShare,
		&t.Fees,
		&date,
		&entryID,
		&created,
	); err != nil {
		return nil, err
	}

	var err error
	if t.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	t.LedgerEntryID = uuidPtr(entryID)
	return &t, nil
}

// GetByID retrieves an investment transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.InvestmentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM investment_transactions WHERE id = ? AND user_id = ?`

	t, err := scanTransaction(r.c.queryRow(ctx, query, id, userID))
	if err != nil {
		return nil, noRows(err, domain.NotFound("investment transaction", id), "get investment transaction by ID")
	}
	return t, nil
}

// ListByPosition retrieves every transaction of ticker within brokerAccountID
func (r *transactionRepository) ListByPosition(ctx context.Context, userID string, brokerAccountID uuid.UUID, ticker string) ([]*domain.InvestmentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM investment_transactions
		WHERE user_id = ? AND broker_account_id = ? AND ticker = ?
		ORDER BY date, created_at, id
	`
	rows, err := r.c.query(ctx, query, userID, brokerAccountID, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to list investment transactions: %w", err)
	}
	return collect(rows, scanTransaction)
}

// Create creates a new investment transaction
func (r *transactionRepository) Create(ctx context.Context, t *domain.InvestmentTransaction) error {
	query := `
		INSERT INTO investment_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.c.exec(ctx, query,
		t.ID,
		t.UserID,
		t.HoldingID,
		t.BrokerAccountID,
		t.PaymentAccountID,
		t.Ticker,
		t.Name,
		t.Market,
		string(t.Type),
		t.Quantity.String(),
		t.PricePerShare.String(),
		t.Fees.String(),
		formatTime(t.Date),
		nullUUID(t.LedgerEntryID),
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create investment transaction: %w", err)
	}
	return nil
}

// Update persists the transaction's holding and ledger links
func (r *transactionRepository) Update(ctx context.Context, t *domain.InvestmentTransaction) error {
	query := `
		UPDATE investment_transactions SET holding_id = ?, ledger_entry_id = ?
		WHERE id = ? AND user_id = ?
	`
	return r.c.execOne(ctx, "update investment transaction", domain.NotFound("investment transaction", t.ID), query,
		t.HoldingID,
		nullUUID(t.LedgerEntryID),
		t.ID,
		t.UserID,
	)
}

// Delete removes an investment transaction
func (r *transactionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.c.execOne(ctx, "delete investment transaction", domain.NotFound("investment transaction", id),
		`DELETE FROM investment_transactions WHERE id = ? AND user_id = ?`, id, userID)
}

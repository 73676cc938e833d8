package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeType represents the side of an investment transaction
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

// InvestmentHolding is the aggregate position in one ticker within one broker account.
// Quantity and AverageCost are always the replay of the position's transactions.
type InvestmentHolding struct {
	ID              uuid.UUID
	UserID          string
	BrokerAccountID uuid.UUID
	Ticker          string
	Name            string
	Market          string // e.g. "TW", "US"
	Quantity        decimal.Decimal
	AverageCost     decimal.Decimal
	CurrentPrice    decimal.Decimal // externally supplied, kept when the oracle is unavailable
	PriceUpdatedAt  *time.Time
}

// MarketValue returns quantity × current price
func (h *InvestmentHolding) MarketValue() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}

// CostBasis returns quantity × average cost
func (h *InvestmentHolding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}

// InvestmentTransaction is a single buy or sell against a position
type InvestmentTransaction struct {
	ID               uuid.UUID
	UserID           string
	HoldingID        uuid.UUID
	BrokerAccountID  uuid.UUID // security side
	PaymentAccountID uuid.UUID // cash side
	Ticker           string
	Name             string
	Market           string
	Type             TradeType
	Quantity         decimal.Decimal
	PricePerShare    decimal.Decimal
	Fees             decimal.Decimal
	Date             time.Time
	LedgerEntryID    *uuid.UUID
	CreatedAt        time.Time
}

// Validate ensures the transaction adheres to domain rules
func (t *InvestmentTransaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return Invalid("user_id", "is required")
	}
	if strings.TrimSpace(t.Ticker) == "" {
		return Invalid("ticker", "is required")
	}
	if t.Type != TradeTypeBuy && t.Type != TradeTypeSell {
		return Invalid("type", "transaction type must be buy or sell")
	}
	if t.Quantity.LessThanOrEqual(decimal.Zero) {
		return Invalid("quantity", "must be positive")
	}
	if t.PricePerShare.IsNegative() {
		return Invalid("price_per_share", "cannot be negative")
	}
	if t.Fees.IsNegative() {
		return Invalid("fees", "cannot be negative")
	}
	if t.BrokerAccountID == uuid.Nil {
		return Invalid("broker_account_id", "is required")
	}
	if t.PaymentAccountID == uuid.Nil {
		return Invalid("payment_account_id", "is required")
	}
	if t.Date.IsZero() {
		return Invalid("date", "is required")
	}
	return nil
}

// Principal returns quantity × price, excluding fees
func (t *InvestmentTransaction) Principal() decimal.Decimal {
	return t.Quantity.Mul(t.PricePerShare)
}

// CashEffect returns the signed change of the payment account:
// −(q×p + f) for a buy, q×p − f for a sell
func (t *InvestmentTransaction) CashEffect() decimal.Decimal {
	if t.Type == TradeTypeBuy {
		return t.Principal().Add(t.Fees).Neg()
	}
	return t.Principal().Sub(t.Fees)
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the direction of a ledger entry
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// EntryKind records which operation produced a ledger entry.
// Aggregates rely on it instead of parsing categories or notes.
type EntryKind string

const (
	EntryKindRegular    EntryKind = "regular"
	EntryKindTransfer   EntryKind = "transfer"
	EntryKindAdjustment EntryKind = "adjustment"
	EntryKindTrade      EntryKind = "trade"    // cash side of an investment buy/sell
	EntryKindPosition   EntryKind = "position" // mark-to-market position increase/decrease
	EntryKindJarDeposit EntryKind = "jar_deposit"
)

// Categories written by system-generated entries
const (
	CategoryTransfer         = "轉帳"
	CategoryStockBuy         = "股票買入"
	CategoryStockSell        = "股票賣出"
	CategoryPositionIncrease = "持倉增加"
	CategoryPositionDecrease = "持倉減少"
	CategoryAdjustment       = "餘額調整"
	CategoryJarDeposit       = "存錢罐"
)

// InvestmentLink ties a ledger entry to the investment activity it records.
// Principal is asset reallocation; ProfitLoss is the only part that is cash-flow.
type InvestmentLink struct {
	TransactionID *uuid.UUID
	Ticker        string
	Principal     decimal.Decimal
	ProfitLoss    decimal.Decimal
}

// LedgerEntry represents a single income or expense event
// Amount is unsigned and denominated in the linked account's currency
type LedgerEntry struct {
	ID             uuid.UUID
	UserID         string
	Type           EntryType
	Amount         decimal.Decimal // ABSOLUTE VALUE (Always Positive)
	Category       string
	AccountID      *uuid.UUID // NULL once the account has been deleted
	Date           time.Time
	Note           string
	Kind           EntryKind
	Investment     *InvestmentLink
	TransferPeerID *uuid.UUID // the other side of a transfer
	CreatedAt      time.Time
}

// Validate ensures the entry adheres to domain rules
func (e *LedgerEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return Invalid("user_id", "is required")
	}
	if e.Type != EntryTypeIncome && e.Type != EntryTypeExpense {
		return Invalid("type", "entry type must be income or expense")
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return Invalid("amount", "entry amount must be positive")
	}
	if strings.TrimSpace(e.Category) == "" {
		return Invalid("category", "is required")
	}
	if e.Date.IsZero() {
		return Invalid("date", "is required")
	}
	switch e.Kind {
	case EntryKindRegular, EntryKindTransfer, EntryKindAdjustment, EntryKindJarDeposit:
	case EntryKindTrade, EntryKindPosition:
		if e.Investment == nil {
			return Invalid("investment", "investment entries must carry an investment link")
		}
	default:
		return Invalid("kind", "unknown entry kind "+string(e.Kind))
	}
	return nil
}

// SignedAmount returns the entry's effect on its account balance
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypeExpense {
		return e.Amount.Neg()
	}
	return e.Amount
}

// IsTransfer reports whether the entry is one side of an inter-account transfer.
// Rows written before kinds existed are recognised by their category.
func (e *LedgerEntry) IsTransfer() bool {
	if e.Kind == EntryKindTransfer {
		return true
	}
	c := strings.TrimSpace(e.Category)
	return c == CategoryTransfer || strings.EqualFold(c, "transfer")
}

// IsPositionCategory reports whether the category is one of the investment categories
func IsPositionCategory(category string) bool {
	switch category {
	case CategoryStockBuy, CategoryStockSell, CategoryPositionIncrease, CategoryPositionDecrease:
		return true
	}
	return false
}

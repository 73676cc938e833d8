package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Every repository call is scoped by the owning user id; an entity owned by another
// user is reported as not found.

// AccountRepository defines the interface for account persistence operations
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Account, error)

	// List retrieves every account of the user ordered by creation time
	List(ctx context.Context, userID string) ([]*Account, error)

	Create(ctx context.Context, account *Account) error

	// Update persists every mutable field, balance included
	Update(ctx context.Context, account *Account) error

	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// LedgerFilter narrows a ledger listing. Zero values mean unbounded.
type LedgerFilter struct {
	From      time.Time // inclusive
	To        time.Time // exclusive
	AccountID *uuid.UUID
}

// LedgerRepository defines the interface for ledger entry persistence operations
type LedgerRepository interface {
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*LedgerEntry, error)

	// List retrieves entries ordered by date, then creation time
	List(ctx context.Context, userID string, filter LedgerFilter) ([]*LedgerEntry, error)

	Create(ctx context.Context, entry *LedgerEntry) error
	Update(ctx context.Context, entry *LedgerEntry) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	// DetachAccount nulls the account reference of every entry pointing at accountID
	DetachAccount(ctx context.Context, userID string, accountID uuid.UUID) error
}

// BudgetRepository defines the interface for budget, budget category and budget item persistence
type BudgetRepository interface {
	GetByMonth(ctx context.Context, userID string, month Month) (*Budget, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Budget, error)
	Create(ctx context.Context, budget *Budget) error
	Update(ctx context.Context, budget *Budget) error

	ListCategories(ctx context.Context, budgetID uuid.UUID) ([]*BudgetCategory, error)
	// SaveCategory inserts the category or updates it when the ID already exists
	SaveCategory(ctx context.Context, category *BudgetCategory) error
	DeleteCategory(ctx context.Context, budgetID, id uuid.UUID) error

	// ListItems retrieves items ordered by creation time
	ListItems(ctx context.Context, budgetID uuid.UUID) ([]*BudgetItem, error)
	CreateItem(ctx context.Context, item *BudgetItem) error
	UpdateItem(ctx context.Context, item *BudgetItem) error
	DeleteItem(ctx context.Context, budgetID, id uuid.UUID) error
}

// HoldingRepository defines the interface for investment holding persistence operations
type HoldingRepository interface {
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*InvestmentHolding, error)

	// GetByPosition retrieves the holding of ticker within brokerAccountID
	GetByPosition(ctx context.Context, userID string, brokerAccountID uuid.UUID, ticker string) (*InvestmentHolding, error)

	List(ctx context.Context, userID string) ([]*InvestmentHolding, error)

	// Save inserts the holding or updates it when the ID already exists
	Save(ctx context.Context, holding *InvestmentHolding) error

	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// InvestmentTransactionRepository defines the interface for investment transaction persistence operations
type InvestmentTransactionRepository interface {
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*InvestmentTransaction, error)

	// ListByPosition retrieves every transaction of ticker within brokerAccountID
	ListByPosition(ctx context.Context, userID string, brokerAccountID uuid.UUID, ticker string) ([]*InvestmentTransaction, error)

	Create(ctx context.Context, tx *InvestmentTransaction) error
	Update(ctx context.Context, tx *InvestmentTransaction) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// SavingsJarRepository defines the interface for savings jar persistence operations
type SavingsJarRepository interface {
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*SavingsJar, error)
	List(ctx context.Context, userID string) ([]*SavingsJar, error)
	Create(ctx context.Context, jar *SavingsJar) error
	Update(ctx context.Context, jar *SavingsJar) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	ListCategories(ctx context.Context, jarID uuid.UUID) ([]*SavingsJarCategory, error)
	SaveCategory(ctx context.Context, category *SavingsJarCategory) error
	DeleteCategory(ctx context.Context, jarID, id uuid.UUID) error

	CreateDeposit(ctx context.Context, deposit *SavingsJarDeposit) error
	ListDeposits(ctx context.Context, jarID uuid.UUID) ([]*SavingsJarDeposit, error)
}

// Repositories groups the repositories bound to one store handle
type Repositories struct {
	Accounts     AccountRepository
	Ledger       LedgerRepository
	Budgets      BudgetRepository
	Holdings     HoldingRepository
	Transactions InvestmentTransactionRepository
	Jars         SavingsJarRepository
}

// Store hands out repositories. InTx runs fn against repositories bound to a single
// atomic unit: either every write made through them is kept or none is.
type Store interface {
	Repos() Repositories
	InTx(ctx context.Context, fn func(repos Repositories) error) error
}

// RateOracle supplies exchange rates to the reporting currency, keyed by currency code.
// Implementations degrade to cached or fallback rates instead of failing.
type RateOracle interface {
	Rates(ctx context.Context) map[string]decimal.Decimal
}

// PriceOracle supplies the latest market price of a ticker.
// An error means the price is unavailable.
type PriceOracle interface {
	Price(ctx context.Context, ticker, market string) (decimal.Decimal, error)
}

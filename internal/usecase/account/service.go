package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// CreateAccountInput represents the input for opening an account
type CreateAccountInput struct {
	UserID         string
	Type           string
	Name           string
	Currency       string
	ExchangeRate   decimal.Decimal
	OpeningBalance decimal.Decimal
	IncludeInTotal bool
}

// UpdateAccountInput holds the descriptive fields of an account.
// The balance is not part of it: balances only move through ledger entries.
type UpdateAccountInput struct {
	UserID         string
	Type           string
	Name           string
	Currency       string
	ExchangeRate   decimal.Decimal
	IncludeInTotal bool
}

// AccountService handles account lifecycle operations
type AccountService struct {
	Store domain.Store
	Log   zerolog.Logger
	Now   func() time.Time
}

// NewAccountService creates a new AccountService instance
func NewAccountService(store domain.Store, log zerolog.Logger) *AccountService {
	return &AccountService{
		Store: store,
		Log:   log,
		Now:   time.Now,
	}
}

// CreateAccount opens a new account with its opening balance
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	account := &domain.Account{
		ID:             uuid.New(),
		UserID:         input.UserID,
		Type:           input.Type,
		Name:           input.Name,
		Balance:        input.OpeningBalance,
		Currency:       input.Currency,
		ExchangeRate:   input.ExchangeRate,
		IncludeInTotal: input.IncludeInTotal,
		CreatedAt:      s.Now(),
	}
	account.Normalize()
	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := s.Store.Repos().Accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount replaces the descriptive fields of an account and keeps its balance.
// A blank currency keeps the current one. The currency only changes on a zero balance.
func (s *AccountService) UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*domain.Account, error) {
	var updated *domain.Account
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		account, err := repos.Accounts.GetByID(ctx, input.UserID, id)
		if err != nil {
			return err
		}

		previous := account.Currency
		account.Type = input.Type
		account.Name = input.Name
		if strings.TrimSpace(input.Currency) != "" {
			account.Currency = input.Currency
		}
		account.ExchangeRate = input.ExchangeRate
		account.IncludeInTotal = input.IncludeInTotal
		account.Normalize()
		if err := account.Validate(); err != nil {
			return err
		}
		// the balance is a number in the account's currency
		if account.Currency != previous && !account.Balance.IsZero() {
			return domain.Invalid("currency", fmt.Sprintf("cannot change currency from %s to %s while the balance is %s",
				previous, account.Currency, account.Balance))
		}

		updated = account
		return repos.Accounts.Update(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetAccount retrieves one account
func (s *AccountService) GetAccount(ctx context.Context, userID string, id uuid.UUID) (*domain.Account, error) {
	return s.Store.Repos().Accounts.GetByID(ctx, userID, id)
}

// ListAccounts retrieves every account of the user
func (s *AccountService) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	return s.Store.Repos().Accounts.List(ctx, userID)
}

// DeleteAccount removes an account. Its ledger entries are kept with the account
// reference cleared, in the same transaction.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string, id uuid.UUID) error {
	return s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Accounts.GetByID(ctx, userID, id); err != nil {
			return err
		}
		if err := repos.Ledger.DetachAccount(ctx, userID, id); err != nil {
			return err
		}
		if err := repos.Accounts.Delete(ctx, userID, id); err != nil {
			return err
		}

		s.Log.Info().Str("account_id", id.String()).Msg("account deleted, ledger entries detached")
		return nil
	})
}

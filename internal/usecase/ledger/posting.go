package ledger

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// Record validates and persists entry, then applies it to its account.
// Callers run it inside Store.InTx so the entry and the balance change commit together.
func Record(ctx context.Context, repos domain.Repositories, entry *domain.LedgerEntry, log zerolog.Logger) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := repos.Ledger.Create(ctx, entry); err != nil {
		return err
	}
	return ApplyEffects(ctx, repos.Accounts, entry.UserID, CreateEffects(entry), log)
}

// Unrecord reverses entry against its account and deletes it
func Unrecord(ctx context.Context, repos domain.Repositories, entry *domain.LedgerEntry, log zerolog.Logger) error {
	if err := ApplyEffects(ctx, repos.Accounts, entry.UserID, DeleteEffects(entry), log); err != nil {
		return err
	}
	return repos.Ledger.Delete(ctx, entry.UserID, entry.ID)
}

// ApplyEffects applies effects in order. An effect against an account that no longer
// exists is skipped: the account was removed independently of the entry.
func ApplyEffects(ctx context.Context, accounts domain.AccountRepository, userID string, effects []BalanceEffect, log zerolog.Logger) error {
	for _, effect := range effects {
		if effect.Delta.IsZero() {
			continue
		}

		account, err := accounts.GetByID(ctx, userID, effect.AccountID)
		if err != nil {
			if domain.IsNotFound(err) {
				log.Debug().
					Str("account_id", effect.AccountID.String()).
					Msg("skipping balance effect on missing account")
				continue
			}
			return err
		}

		account.Balance = account.Balance.Add(effect.Delta)
		if err := accounts.Update(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// ConvertBetween converts amount from one account's currency into another's using the
// accounts' exchange rates to the reporting currency
func ConvertBetween(amount decimal.Decimal, from, to *domain.Account) decimal.Decimal {
	if from.Currency == to.Currency {
		return amount
	}
	if to.ExchangeRate.IsZero() {
		return amount
	}
	converted := amount.Mul(from.ExchangeRate).Div(to.ExchangeRate)
	return domain.RoundToCurrency(converted, to.Currency)
}

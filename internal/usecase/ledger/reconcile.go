package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// BalanceEffect is a signed change to one account's balance
type BalanceEffect struct {
	AccountID uuid.UUID
	Delta     decimal.Decimal
}

// ApplyEntry returns the balance after applying entry:
// balance + amount for income, balance − amount for expense
func ApplyEntry(balance decimal.Decimal, entry *domain.LedgerEntry) decimal.Decimal {
	return balance.Add(entry.SignedAmount())
}

// ReverseEntry is the algebraic inverse of ApplyEntry
func ReverseEntry(balance decimal.Decimal, entry *domain.LedgerEntry) decimal.Decimal {
	return balance.Sub(entry.SignedAmount())
}

// CreateEffects returns the balance effects of persisting a new entry
func CreateEffects(entry *domain.LedgerEntry) []BalanceEffect {
	if entry.AccountID == nil {
		return nil
	}
	return []BalanceEffect{{AccountID: *entry.AccountID, Delta: entry.SignedAmount()}}
}

// DeleteEffects returns the balance effects of removing an entry
func DeleteEffects(entry *domain.LedgerEntry) []BalanceEffect {
	if entry.AccountID == nil {
		return nil
	}
	return []BalanceEffect{{AccountID: *entry.AccountID, Delta: entry.SignedAmount().Neg()}}
}

// EditEffects returns the ordered balance effects of replacing old with updated.
// The reversal of old always comes before the application of updated. When both
// reference the same account the two collapse into a single delta.
func EditEffects(old, updated *domain.LedgerEntry) []BalanceEffect {
	if old.AccountID != nil && updated.AccountID != nil && *old.AccountID == *updated.AccountID {
		delta := updated.SignedAmount().Sub(old.SignedAmount())
		if delta.IsZero() {
			return nil
		}
		return []BalanceEffect{{AccountID: *old.AccountID, Delta: delta}}
	}

	effects := DeleteEffects(old)
	return append(effects, CreateEffects(updated)...)
}

// CashFlow splits an entry into its contribution to monthly income and expense totals.
//   - transfers and jar deposits move money between the user's own places: zero
//   - investment entries count only their profit/loss, never the principal
//   - investment-category rows without a structured link cannot be split: zero
//   - everything else counts fully by type
func CashFlow(entry *domain.LedgerEntry) (income, expense decimal.Decimal) {
	if entry.IsTransfer() || entry.Kind == domain.EntryKindJarDeposit {
		return decimal.Zero, decimal.Zero
	}

	if entry.Investment != nil && (entry.Kind == domain.EntryKindTrade || entry.Kind == domain.EntryKindPosition) {
		pl := entry.Investment.ProfitLoss
		if pl.IsPositive() {
			return pl, decimal.Zero
		}
		return decimal.Zero, pl.Neg()
	}

	if domain.IsPositionCategory(entry.Category) {
		return decimal.Zero, decimal.Zero
	}

	if entry.Type == domain.EntryTypeIncome {
		return entry.Amount, decimal.Zero
	}
	return decimal.Zero, entry.Amount
}

// Totals sums CashFlow over entries
func Totals(entries []*domain.LedgerEntry) (income, expense decimal.Decimal) {
	for _, e := range entries {
		in, out := CashFlow(e)
		income = income.Add(in)
		expense = expense.Add(out)
	}
	return income, expense
}

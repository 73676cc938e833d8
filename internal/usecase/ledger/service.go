package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// EntryInput represents the user-editable fields of a ledger entry
type EntryInput struct {
	UserID    string
	Type      domain.EntryType
	Amount    decimal.Decimal
	Category  string
	AccountID *uuid.UUID
	Date      time.Time // zero means today
	Note      string
}

// TransferInput represents the input for moving money between two accounts
type TransferInput struct {
	UserID        string
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal // in the source account's currency
	Date          time.Time
	Note          string
}

// TransferResult holds both sides of a transfer
type TransferResult struct {
	Out *domain.LedgerEntry
	In  *domain.LedgerEntry
}

// AdjustBalanceInput represents an explicit balance correction
type AdjustBalanceInput struct {
	UserID    string
	AccountID uuid.UUID
	Type      domain.EntryType // income raises the balance, expense lowers it
	Amount    decimal.Decimal
	Date      time.Time
	Note      string
}

// Service handles ledger entry mutations and keeps account balances consistent with them
type Service struct {
	Store domain.Store
	Log   zerolog.Logger
	Now   func() time.Time
}

// NewService creates a new ledger Service instance
func NewService(store domain.Store, log zerolog.Logger) *Service {
	return &Service{
		Store: store,
		Log:   log,
		Now:   time.Now,
	}
}

func (s *Service) today() time.Time {
	return domain.DateOf(s.Now())
}

// CreateEntry records a user entry and applies it to the referenced account
func (s *Service) CreateEntry(ctx context.Context, input EntryInput) (*domain.LedgerEntry, error) {
	entry := s.entryFromInput(uuid.New(), input)
	entry.Kind = domain.EntryKindRegular
	entry.CreatedAt = s.Now()

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if entry.AccountID != nil {
			if _, err := repos.Accounts.GetByID(ctx, entry.UserID, *entry.AccountID); err != nil {
				return err
			}
		}
		return Record(ctx, repos, entry, s.Log)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntry replaces the editable fields of an entry.
// Logic:
//  1. Reverse the old amount against the old account
//  2. Apply the new amount against the new account (same account: apply the delta)
//  3. Persist the entry
func (s *Service) UpdateEntry(ctx context.Context, id uuid.UUID, input EntryInput) (*domain.LedgerEntry, error) {
	var updated *domain.LedgerEntry

	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		old, err := repos.Ledger.GetByID(ctx, input.UserID, id)
		if err != nil {
			return err
		}
		if old.Kind != domain.EntryKindRegular && old.Kind != domain.EntryKindAdjustment {
			return domain.Invalid("kind", fmt.Sprintf("%s entries are managed by their originating operation", old.Kind))
		}

		updated = s.entryFromInput(old.ID, input)
		updated.Kind = old.Kind
		updated.CreatedAt = old.CreatedAt
		if err := updated.Validate(); err != nil {
			return err
		}

		accountChanged := updated.AccountID != nil && (old.AccountID == nil || *old.AccountID != *updated.AccountID)
		if accountChanged {
			if _, err := repos.Accounts.GetByID(ctx, updated.UserID, *updated.AccountID); err != nil {
				return err
			}
		}

		if err := ApplyEffects(ctx, repos.Accounts, updated.UserID, EditEffects(old, updated), s.Log); err != nil {
			return err
		}
		return repos.Ledger.Update(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEntry removes an entry and reverses its balance effect.
// Deleting either side of a transfer removes both sides.
func (s *Service) DeleteEntry(ctx context.Context, userID string, id uuid.UUID) error {
	return s.Store.InTx(ctx, func(repos domain.Repositories) error {
		entry, err := repos.Ledger.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if entry.Kind == domain.EntryKindTrade || entry.Kind == domain.EntryKindJarDeposit {
			return domain.Invalid("kind", fmt.Sprintf("%s entries are removed through their originating operation", entry.Kind))
		}
		if entry.Kind == domain.EntryKindTransfer {
			if err := s.unrecordPeer(ctx, repos, entry); err != nil {
				return err
			}
		}
		return Unrecord(ctx, repos, entry, s.Log)
	})
}

// unrecordPeer removes the other side of a transfer. A transfer recorded without a
// peer link cannot be undone one side at a time.
func (s *Service) unrecordPeer(ctx context.Context, repos domain.Repositories, entry *domain.LedgerEntry) error {
	if entry.TransferPeerID == nil {
		return domain.Invalid("kind", "transfer has no linked counterpart, adjust the balances instead")
	}
	peer, err := repos.Ledger.GetByID(ctx, entry.UserID, *entry.TransferPeerID)
	if domain.IsNotFound(err) {
		s.Log.Info().Str("entry_id", entry.ID.String()).Msg("transfer counterpart already gone")
		return nil
	}
	if err != nil {
		return err
	}
	return Unrecord(ctx, repos, peer, s.Log)
}

// Transfer moves money between two accounts of the same user.
// Both sides are recorded as transfer entries so they never count as cash flow.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.Invalid("amount", "transfer amount must be positive")
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.Invalid("to_account_id", "cannot transfer to the same account")
	}

	date := input.Date
	if date.IsZero() {
		date = s.today()
	}

	result := &TransferResult{}
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		from, err := repos.Accounts.GetByID(ctx, input.UserID, input.FromAccountID)
		if err != nil {
			return err
		}
		to, err := repos.Accounts.GetByID(ctx, input.UserID, input.ToAccountID)
		if err != nil {
			return err
		}
		if input.Amount.GreaterThan(from.Balance) {
			return domain.Invalid("amount", fmt.Sprintf("insufficient balance in %s", from.Name))
		}

		credited := ConvertBetween(input.Amount, from, to)
		now := s.Now()

		result.Out = &domain.LedgerEntry{
			ID:        uuid.New(),
			UserID:    input.UserID,
			Type:      domain.EntryTypeExpense,
			Amount:    input.Amount,
			Category:  domain.CategoryTransfer,
			AccountID: &from.ID,
			Date:      date,
			Note:      transferNote(input.Note, "→ "+to.Name),
			Kind:      domain.EntryKindTransfer,
			CreatedAt: now,
		}
		result.In = &domain.LedgerEntry{
			ID:        uuid.New(),
			UserID:    input.UserID,
			Type:      domain.EntryTypeIncome,
			Amount:    credited,
			Category:  domain.CategoryTransfer,
			AccountID: &to.ID,
			Date:      date,
			Note:      transferNote(input.Note, "← "+from.Name),
			Kind:      domain.EntryKindTransfer,
			CreatedAt: now,
		}

		result.Out.TransferPeerID = &result.In.ID
		result.In.TransferPeerID = &result.Out.ID

		if err := Record(ctx, repos, result.Out, s.Log); err != nil {
			return err
		}
		return Record(ctx, repos, result.In, s.Log)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdjustBalance records an explicit correction of an account's balance
func (s *Service) AdjustBalance(ctx context.Context, input AdjustBalanceInput) (*domain.LedgerEntry, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.Invalid("amount", "adjustment amount must be positive")
	}
	if input.Type != domain.EntryTypeIncome && input.Type != domain.EntryTypeExpense {
		return nil, domain.Invalid("type", "adjustment type must be income or expense")
	}

	entry := s.entryFromInput(uuid.New(), EntryInput{
		UserID:    input.UserID,
		Type:      input.Type,
		Amount:    input.Amount,
		Category:  domain.CategoryAdjustment,
		AccountID: &input.AccountID,
		Date:      input.Date,
		Note:      input.Note,
	})
	entry.Kind = domain.EntryKindAdjustment
	entry.CreatedAt = s.Now()

	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Accounts.GetByID(ctx, input.UserID, input.AccountID); err != nil {
			return err
		}
		return Record(ctx, repos, entry, s.Log)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetBalance adjusts an account so that its balance equals target.
// Returns nil and no entry when the balance already matches.
func (s *Service) SetBalance(ctx context.Context, userID string, accountID uuid.UUID, target decimal.Decimal, note string) (*domain.LedgerEntry, error) {
	account, err := s.Store.Repos().Accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	diff := target.Sub(account.Balance)
	if diff.IsZero() {
		return nil, nil
	}

	entryType := domain.EntryTypeIncome
	if diff.IsNegative() {
		entryType = domain.EntryTypeExpense
	}
	return s.AdjustBalance(ctx, AdjustBalanceInput{
		UserID:    userID,
		AccountID: accountID,
		Type:      entryType,
		Amount:    diff.Abs(),
		Note:      note,
	})
}

// ListEntries returns the entries matching filter
func (s *Service) ListEntries(ctx context.Context, userID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	return s.Store.Repos().Ledger.List(ctx, userID, filter)
}

// MonthCashFlow returns the month's income and expense totals under the cash-flow rules
func (s *Service) MonthCashFlow(ctx context.Context, userID string, month domain.Month) (income, expense decimal.Decimal, err error) {
	entries, err := s.Store.Repos().Ledger.List(ctx, userID, domain.LedgerFilter{From: month.Start(), To: month.End()})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	income, expense = Totals(entries)
	return income, expense, nil
}

func (s *Service) entryFromInput(id uuid.UUID, input EntryInput) *domain.LedgerEntry {
	date := input.Date
	if date.IsZero() {
		date = s.today()
	}
	return &domain.LedgerEntry{
		ID:        id,
		UserID:    input.UserID,
		Type:      input.Type,
		Amount:    input.Amount,
		Category:  input.Category,
		AccountID: input.AccountID,
		Date:      domain.DateOf(date),
		Note:      input.Note,
	}
}

func transferNote(note, direction string) string {
	if note == "" {
		return direction
	}
	return note + " " + direction
}

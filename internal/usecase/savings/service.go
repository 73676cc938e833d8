package savings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
)

// JarInput represents the editable fields of a savings jar
type JarInput struct {
	UserID              string
	Name                string
	TargetAmount        decimal.Decimal
	IncludeInDisposable bool
}

// CategoryInput represents the editable fields of a jar category
type CategoryInput struct {
	Name       string
	Percentage decimal.Decimal
	Color      string
	Icon       string
}

// MoveInput represents a deposit into or a withdrawal from a jar
type MoveInput struct {
	UserID    string
	JarID     uuid.UUID
	AccountID uuid.UUID
	Amount    decimal.Decimal // always positive
	Date      time.Time
	Note      string
}

// JarView is a jar with its progress towards the target
type JarView struct {
	Jar        *domain.SavingsJar
	Categories []*domain.SavingsJarCategory
	Progress   decimal.Decimal
}

// SavingsService handles savings jars and the money moved into them
type SavingsService struct {
	Store domain.Store
	Log   zerolog.Logger
	Now   func() time.Time
}

// NewSavingsService creates a new SavingsService instance
func NewSavingsService(store domain.Store, log zerolog.Logger) *SavingsService {
	return &SavingsService{
		Store: store,
		Log:   log,
		Now:   time.Now,
	}
}

// CreateJar creates an empty jar
func (s *SavingsService) CreateJar(ctx context.Context, input JarInput) (*domain.SavingsJar, error) {
	jar := &domain.SavingsJar{
		ID:                  uuid.New(),
		UserID:              input.UserID,
		Name:                input.Name,
		TargetAmount:        input.TargetAmount,
		IncludeInDisposable: input.IncludeInDisposable,
		CreatedAt:           s.Now(),
	}
	if err := jar.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.Repos().Jars.Create(ctx, jar); err != nil {
		return nil, err
	}
	return jar, nil
}

// UpdateJar replaces the descriptive fields of a jar. The current amount only moves
// through deposits and withdrawals.
func (s *SavingsService) UpdateJar(ctx context.Context, id uuid.UUID, input JarInput) (*domain.SavingsJar, error) {
	var jar *domain.SavingsJar
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		var err error
		if jar, err = repos.Jars.GetByID(ctx, input.UserID, id); err != nil {
			return err
		}
		jar.Name = input.Name
		jar.TargetAmount = input.TargetAmount
		jar.IncludeInDisposable = input.IncludeInDisposable
		if err := jar.Validate(); err != nil {
			return err
		}
		return repos.Jars.Update(ctx, jar)
	})
	if err != nil {
		return nil, err
	}
	return jar, nil
}

// DeleteJar removes a jar and its categories. Money still in it is not returned.
func (s *SavingsService) DeleteJar(ctx context.Context, userID string, id uuid.UUID) error {
	return s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if err := repos.Jars.Delete(ctx, userID, id); err != nil {
			return err
		}
		s.Log.Info().Str("jar_id", id.String()).Msg("savings jar deleted")
		return nil
	})
}

// GetJar returns a jar with its categories and progress
func (s *SavingsService) GetJar(ctx context.Context, userID string, id uuid.UUID) (*JarView, error) {
	repos := s.Store.Repos()
	jar, err := repos.Jars.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	categories, err := repos.Jars.ListCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	return &JarView{Jar: jar, Categories: categories, Progress: jar.Progress()}, nil
}

// ListJars returns every jar of the user with its progress
func (s *SavingsService) ListJars(ctx context.Context, userID string) ([]*JarView, error) {
	repos := s.Store.Repos()
	jars, err := repos.Jars.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*JarView, 0, len(jars))
	for _, j := range jars {
		categories, err := repos.Jars.ListCategories(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &JarView{Jar: j, Categories: categories, Progress: j.Progress()})
	}
	return out, nil
}

// SaveCategory creates a jar category, or replaces it when id is set
func (s *SavingsService) SaveCategory(ctx context.Context, userID string, jarID uuid.UUID, id *uuid.UUID, input CategoryInput) (*domain.SavingsJarCategory, error) {
	c := &domain.SavingsJarCategory{
		ID:         uuid.New(),
		JarID:      jarID,
		Name:       input.Name,
		Percentage: input.Percentage,
		Color:      input.Color,
		Icon:       input.Icon,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Jars.GetByID(ctx, userID, jarID); err != nil {
			return err
		}
		if id != nil {
			categories, err := repos.Jars.ListCategories(ctx, jarID)
			if err != nil {
				return err
			}
			if !containsCategory(categories, *id) {
				return domain.NotFound("savings jar category", id)
			}
			c.ID = *id
		}
		return repos.Jars.SaveCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a jar category
func (s *SavingsService) DeleteCategory(ctx context.Context, userID string, jarID, id uuid.UUID) error {
	return s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Jars.GetByID(ctx, userID, jarID); err != nil {
			return err
		}
		return repos.Jars.DeleteCategory(ctx, jarID, id)
	})
}

// Deposit moves money from an account into a jar.
// Logic:
//  1. Check the source account holds enough
//  2. Record a jar_deposit expense on the account (never counted as cash flow)
//  3. Raise the jar's current amount and record the deposit
func (s *SavingsService) Deposit(ctx context.Context, input MoveInput) (*domain.SavingsJarDeposit, error) {
	return s.move(ctx, input, false)
}

// Withdraw moves money from a jar back into an account
func (s *SavingsService) Withdraw(ctx context.Context, input MoveInput) (*domain.SavingsJarDeposit, error) {
	return s.move(ctx, input, true)
}

// ListDeposits returns a jar's deposit history
func (s *SavingsService) ListDeposits(ctx context.Context, userID string, jarID uuid.UUID) ([]*domain.SavingsJarDeposit, error) {
	repos := s.Store.Repos()
	if _, err := repos.Jars.GetByID(ctx, userID, jarID); err != nil {
		return nil, err
	}
	return repos.Jars.ListDeposits(ctx, jarID)
}

func (s *SavingsService) move(ctx context.Context, input MoveInput, withdraw bool) (*domain.SavingsJarDeposit, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.Invalid("amount", "amount must be positive")
	}

	now := s.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	var deposit *domain.SavingsJarDeposit
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		jar, err := repos.Jars.GetByID(ctx, input.UserID, input.JarID)
		if err != nil {
			return err
		}
		account, err := repos.Accounts.GetByID(ctx, input.UserID, input.AccountID)
		if err != nil {
			return err
		}

		entry := &domain.LedgerEntry{
			ID:        uuid.New(),
			UserID:    input.UserID,
			Type:      domain.EntryTypeExpense,
			Amount:    input.Amount,
			Category:  domain.CategoryJarDeposit,
			AccountID: &account.ID,
			Date:      domain.DateOf(date),
			Note:      moveNote(input.Note, "→ "+jar.Name),
			Kind:      domain.EntryKindJarDeposit,
			CreatedAt: now,
		}
		signed := input.Amount

		if withdraw {
			if input.Amount.GreaterThan(jar.CurrentAmount) {
				return domain.Invalid("amount", fmt.Sprintf("jar %s only holds %s", jar.Name, jar.CurrentAmount))
			}
			entry.Type = domain.EntryTypeIncome
			entry.Note = moveNote(input.Note, "← "+jar.Name)
			signed = input.Amount.Neg()
		} else if input.Amount.GreaterThan(account.Balance) {
			return domain.Invalid("amount", fmt.Sprintf("insufficient balance in %s", account.Name))
		}

		if err := ledger.Record(ctx, repos, entry, s.Log); err != nil {
			return err
		}

		jar.CurrentAmount = jar.CurrentAmount.Add(signed)
		if err := repos.Jars.Update(ctx, jar); err != nil {
			return err
		}

		deposit = &domain.SavingsJarDeposit{
			ID:              uuid.New(),
			JarID:           jar.ID,
			SourceAccountID: account.ID,
			Amount:          signed,
			Date:            entry.Date,
			Note:            input.Note,
			LedgerEntryID:   &entry.ID,
			CreatedAt:       now,
		}
		return repos.Jars.CreateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

func containsCategory(categories []*domain.SavingsJarCategory, id uuid.UUID) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func moveNote(note, direction string) string {
	if note == "" {
		return direction
	}
	return note + " " + direction
}

package budget

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
)

// AutoItemEpsilon is the largest drift tolerated before the auto item is rewritten
var AutoItemEpsilon = decimal.New(1, -2)

// ReconcileResult counts the writes made by ReconcileAutoExtraIncome
type ReconcileResult struct {
	Created int
	Updated int
	Deleted int
}

// Changed reports whether anything was written
func (r ReconcileResult) Changed() bool {
	return r.Created+r.Updated+r.Deleted > 0
}

// Evaluation is a fully reconciled and allocated month
type Evaluation struct {
	Budget     *domain.Budget
	Items      []*domain.BudgetItem
	Categories []*domain.BudgetCategory
	Allocation *Allocation
	Reconcile  ReconcileResult
}

// UpdateBudgetInput holds the legacy aggregate fields of a budget
type UpdateBudgetInput struct {
	FixedIncome  decimal.Decimal
	FixedExpense decimal.Decimal
	ExtraIncome  decimal.Decimal
}

// CategoryInput represents the editable fields of a budget category
type CategoryInput struct {
	Name            string
	Type            domain.CategoryPool
	Percentage      decimal.Decimal
	ExtraPercentage decimal.Decimal
	Color           string
	Icon            string
}

// ItemInput represents the editable fields of a budget item
type ItemInput struct {
	Type   domain.BudgetItemType
	Name   string
	Amount decimal.Decimal
}

// BudgetService handles monthly budgets, their categories and items
type BudgetService struct {
	Store domain.Store
	Log   zerolog.Logger
	Now   func() time.Time
}

// NewBudgetService creates a new BudgetService instance
func NewBudgetService(store domain.Store, log zerolog.Logger) *BudgetService {
	return &BudgetService{
		Store: store,
		Log:   log,
		Now:   time.Now,
	}
}

// GetOrCreateBudget returns the user's budget for month, creating an empty one if absent
func (s *BudgetService) GetOrCreateBudget(ctx context.Context, userID string, month domain.Month) (*domain.Budget, error) {
	var b *domain.Budget
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		var err error
		b, err = s.getOrCreate(ctx, repos, userID, month)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BudgetService) getOrCreate(ctx context.Context, repos domain.Repositories, userID string, month domain.Month) (*domain.Budget, error) {
	b, err := repos.Budgets.GetByMonth(ctx, userID, month)
	if err == nil {
		return b, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}

	b = &domain.Budget{
		ID:        uuid.New(),
		UserID:    userID,
		Month:     month,
		CreatedAt: s.Now(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := repos.Budgets.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReconcileAutoExtraIncome keeps exactly one auto-calculated extra income item on the
// month's budget, worth max(0, previous month ledger income − fixed income of the month).
// Logic:
//  1. Sum the previous month's ledger income under the cash-flow rules
//  2. Delete duplicate auto items, keeping the oldest
//  3. Create the item when absent, or update it when it drifted by more than AutoItemEpsilon
//
// Running it again with unchanged inputs writes nothing.
func (s *BudgetService) ReconcileAutoExtraIncome(ctx context.Context, userID string, month domain.Month) (ReconcileResult, error) {
	var result ReconcileResult
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		var err error
		result, err = s.reconcile(ctx, repos, userID, month)
		return err
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	return result, nil
}

func (s *BudgetService) reconcile(ctx context.Context, repos domain.Repositories, userID string, month domain.Month) (ReconcileResult, error) {
	var result ReconcileResult

	b, err := s.getOrCreate(ctx, repos, userID, month)
	if err != nil {
		return result, err
	}
	items, err := repos.Budgets.ListItems(ctx, b.ID)
	if err != nil {
		return result, err
	}

	prev := month.Prev()
	entries, err := repos.Ledger.List(ctx, userID, domain.LedgerFilter{From: prev.Start(), To: prev.End()})
	if err != nil {
		return result, err
	}
	prevIncome, _ := ledger.Totals(entries)

	calculated := prevIncome.Sub(ComputePools(b, items).FixedIncome)
	if calculated.IsNegative() {
		calculated = decimal.Zero
	}

	var auto []*domain.BudgetItem
	for _, it := range items {
		if it.Type == domain.BudgetItemExtraIncome && it.IsAutoCalculated {
			auto = append(auto, it)
		}
	}

	if len(auto) == 0 {
		item := &domain.BudgetItem{
			ID:               uuid.New(),
			BudgetID:         b.ID,
			Type:             domain.BudgetItemExtraIncome,
			Name:             domain.AutoExtraIncomeName,
			Amount:           calculated,
			IsAutoCalculated: true,
			CreatedAt:        s.Now(),
		}
		if err := repos.Budgets.CreateItem(ctx, item); err != nil {
			return result, err
		}
		result.Created++
		return result, nil
	}

	keep := auto[0]
	for _, dup := range auto[1:] {
		if err := repos.Budgets.DeleteItem(ctx, b.ID, dup.ID); err != nil {
			return result, err
		}
		result.Deleted++
	}
	if result.Deleted > 0 {
		s.Log.Info().
			Str("budget_id", b.ID.String()).
			Int("deleted", result.Deleted).
			Msg("removed duplicate auto-calculated extra income items")
	}

	if keep.Amount.Sub(calculated).Abs().GreaterThan(AutoItemEpsilon) {
		keep.Amount = calculated
		if err := repos.Budgets.UpdateItem(ctx, keep); err != nil {
			return result, err
		}
		result.Updated++
	}
	return result, nil
}

// Evaluate reconciles the month's auto item and allocates its pools to the categories
func (s *BudgetService) Evaluate(ctx context.Context, userID string, month domain.Month) (*Evaluation, error) {
	eval := &Evaluation{}
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		result, err := s.reconcile(ctx, repos, userID, month)
		if err != nil {
			return err
		}
		eval.Reconcile = result

		if eval.Budget, err = repos.Budgets.GetByMonth(ctx, userID, month); err != nil {
			return err
		}
		if eval.Items, err = repos.Budgets.ListItems(ctx, eval.Budget.ID); err != nil {
			return err
		}
		eval.Categories, err = repos.Budgets.ListCategories(ctx, eval.Budget.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	eval.Allocation = Allocate(eval.Budget, eval.Items, eval.Categories)
	return eval, nil
}

// UpdateBudget replaces the aggregate fields of the month's budget
func (s *BudgetService) UpdateBudget(ctx context.Context, userID string, month domain.Month, input UpdateBudgetInput) (*domain.Budget, error) {
	var b *domain.Budget
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		var err error
		if b, err = s.getOrCreate(ctx, repos, userID, month); err != nil {
			return err
		}
		b.FixedIncome = input.FixedIncome
		b.FixedExpense = input.FixedExpense
		b.ExtraIncome = input.ExtraIncome
		if err := b.Validate(); err != nil {
			return err
		}
		return repos.Budgets.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AddCategory creates a category on the month's budget
func (s *BudgetService) AddCategory(ctx context.Context, userID string, month domain.Month, input CategoryInput) (*domain.BudgetCategory, error) {
	var c *domain.BudgetCategory
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		b, err := s.getOrCreate(ctx, repos, userID, month)
		if err != nil {
			return err
		}
		c = categoryFromInput(uuid.New(), b.ID, input)
		if err := c.Validate(); err != nil {
			return err
		}
		return repos.Budgets.SaveCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory replaces a category's fields
func (s *BudgetService) UpdateCategory(ctx context.Context, userID string, budgetID, id uuid.UUID, input CategoryInput) (*domain.BudgetCategory, error) {
	var c *domain.BudgetCategory
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := s.findCategory(ctx, repos, userID, budgetID, id); err != nil {
			return err
		}
		c = categoryFromInput(id, budgetID, input)
		if err := c.Validate(); err != nil {
			return err
		}
		return repos.Budgets.SaveCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category
func (s *BudgetService) DeleteCategory(ctx context.Context, userID string, budgetID, id uuid.UUID) error {
	return s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Budgets.GetByID(ctx, userID, budgetID); err != nil {
			return err
		}
		return repos.Budgets.DeleteCategory(ctx, budgetID, id)
	})
}

func (s *BudgetService) findCategory(ctx context.Context, repos domain.Repositories, userID string, budgetID, id uuid.UUID) (*domain.BudgetCategory, error) {
	if _, err := repos.Budgets.GetByID(ctx, userID, budgetID); err != nil {
		return nil, err
	}
	categories, err := repos.Budgets.ListCategories(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.NotFound("budget category", id)
}

// AddItem creates a user-maintained item on the month's budget
func (s *BudgetService) AddItem(ctx context.Context, userID string, month domain.Month, input ItemInput) (*domain.BudgetItem, error) {
	var item *domain.BudgetItem
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		b, err := s.getOrCreate(ctx, repos, userID, month)
		if err != nil {
			return err
		}
		item = &domain.BudgetItem{
			ID:        uuid.New(),
			BudgetID:  b.ID,
			Type:      input.Type,
			Name:      input.Name,
			Amount:    input.Amount,
			CreatedAt: s.Now(),
		}
		if err := item.Validate(); err != nil {
			return err
		}
		return repos.Budgets.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem replaces a user-maintained item. The auto-calculated item is read-only.
func (s *BudgetService) UpdateItem(ctx context.Context, userID string, budgetID, id uuid.UUID, input ItemInput) (*domain.BudgetItem, error) {
	var item *domain.BudgetItem
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		existing, err := s.findItem(ctx, repos, userID, budgetID, id)
		if err != nil {
			return err
		}
		if existing.IsAutoCalculated {
			return domain.Invalid("is_auto_calculated", "the auto-calculated item is maintained by the system")
		}

		item = existing
		item.Type = input.Type
		item.Name = input.Name
		item.Amount = input.Amount
		if err := item.Validate(); err != nil {
			return err
		}
		return repos.Budgets.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item. A deleted auto item is recreated on the next evaluation.
func (s *BudgetService) DeleteItem(ctx context.Context, userID string, budgetID, id uuid.UUID) error {
	return s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := s.findItem(ctx, repos, userID, budgetID, id); err != nil {
			return err
		}
		return repos.Budgets.DeleteItem(ctx, budgetID, id)
	})
}

func (s *BudgetService) findItem(ctx context.Context, repos domain.Repositories, userID string, budgetID, id uuid.UUID) (*domain.BudgetItem, error) {
	if _, err := repos.Budgets.GetByID(ctx, userID, budgetID); err != nil {
		return nil, err
	}
	items, err := repos.Budgets.ListItems(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, domain.NotFound("budget item", id)
}

func categoryFromInput(id, budgetID uuid.UUID, input CategoryInput) *domain.BudgetCategory {
	return &domain.BudgetCategory{
		ID:              id,
		BudgetID:        budgetID,
		Name:            input.Name,
		Type:            input.Type,
		Percentage:      input.Percentage,
		ExtraPercentage: input.ExtraPercentage,
		Color:           input.Color,
		Icon:            input.Icon,
	}
}

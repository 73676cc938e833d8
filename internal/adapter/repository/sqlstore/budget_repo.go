package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/moneyjar/internal/domain"
)

// budgetRepository implements domain.BudgetRepository
type budgetRepository struct {
	c conn
}

const budgetColumns = `id, user_id, month, fixed_income, fixed_expense, extra_income, created_at`

func scanBudget(s scanner) (*domain.Budget, error) {
	var (
		b              domain.Budget
		month, created string
	)
	if err := s.Scan(
		&b.ID,
		&b.UserID,
		&month,
		&b.FixedIncome,
		&b.FixedExpense,
		&b.ExtraIncome,
		&created,
	); err != nil {
		return nil, err
	}

	m, err := domain.ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("failed to parse budget month: %w", err)
	}
	b.Month = m
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByMonth retrieves the user's budget of month
func (r *budgetRepository) GetByMonth(ctx context.Context, userID string, month domain.Month) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ? AND month = ?`

	b, err := scanBudget(r.c.queryRow(ctx, query, userID, month.String()))
	if err != nil {
		return nil, noRows(err, &domain.ReferenceError{Entity: "budget", ID: month.String()}, "get budget by month")
	}
	return b, nil
}

// GetByID retrieves a budget by its ID
func (r *budgetRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ? AND user_id = ?`

	b, err := scanBudget(r.c.queryRow(ctx, query, id, userID))
	if err != nil {
		return nil, noRows(err, domain.NotFound("budget", id), "get budget by ID")
	}
	return b, nil
}

// Create creates a new budget; a second budget for the same month is rejected by the unique key
func (r *budgetRepository) Create(ctx context.Context, b *domain.Budget) error {
	query := `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.c.exec(ctx, query,
		b.ID,
		b.UserID,
		b.Month.String(),
		b.FixedIncome.String(),
		b.FixedExpense.String(),
		b.ExtraIncome.String(),
		formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

// Update persists the legacy aggregate amounts
func (r *budgetRepository) Update(ctx context.Context, b *domain.Budget) error {
	query := `
		UPDATE budgets SET fixed_income = ?, fixed_expense = ?, extra_income = ?
		WHERE id = ? AND user_id = ?
	`
	return r.c.execOne(ctx, "update budget", domain.NotFound("budget", b.ID), query,
		b.FixedIncome.String(),
		b.FixedExpense.String(),
		b.ExtraIncome.String(),
		b.ID,
		b.UserID,
	)
}

func scanBudgetCategory(s scanner) (*domain.BudgetCategory, error) {
	var c domain.BudgetCategory
	if err := s.Scan(
		&c.ID,
		&c.BudgetID,
		&c.Name,
		&c.Type,
		&c.Percentage,
		&c.ExtraPercentage,
		&c.Color,
		&c.Icon,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories retrieves the budget's categories ordered by name
func (r *budgetRepository) ListCategories(ctx context.Context, budgetID uuid.UUID) ([]*domain.BudgetCategory, error) {
	query := `
		SELECT id, budget_id, name, type, percentage, extra_percentage, color, icon
		FROM budget_categories
		WHERE budget_id = ?
		ORDER BY name, id
	`
	rows, err := r.c.query(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget categories: %w", err)
	}
	return collect(rows, scanBudgetCategory)
}

// SaveCategory inserts the category or updates it when the ID already exists
func (r *budgetRepository) SaveCategory(ctx context.Context, c *domain.BudgetCategory) error {
	query := `
		INSERT INTO budget_categories (id, budget_id, name, type, percentage, extra_percentage, color, icon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			percentage = excluded.percentage,
			extra_percentage = excluded.extra_percentage,
			color = excluded.color,
			icon = excluded.icon
		WHERE budget_categories.budget_id = excluded.budget_id
	`
	return r.c.execOne(ctx, "save budget category", domain.NotFound("budget category", c.ID), query,
		c.ID,
		c.BudgetID,
		c.Name,
		string(c.Type),
		c.Percentage.String(),
		c.ExtraPercentage.String(),
		c.Color,
		c.Icon,
	)
}

// DeleteCategory removes a category of the budget
func (r *budgetRepository) DeleteCategory(ctx context.Context, budgetID, id uuid.UUID) error {
	return r.c.execOne(ctx, "delete budget category", domain.NotFound("budget category", id),
		`DELETE FROM budget_categories WHERE id = ? AND budget_id = ?`, id, budgetID)
}

func scanBudgetItem(s scanner) (*domain.BudgetItem, error) {
	var (
		it      domain.BudgetItem
		created string
	)
	if err := s.Scan(
		&it.ID,
		&it.BudgetID,
		&it.Type,
		&it.Name,
		&it.Amount,
		&it.IsAutoCalculated,
		&created,
	); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	it.CreatedAt = t
	return &it, nil
}

// ListItems retrieves items ordered by creation time
func (r *budgetRepository) ListItems(ctx context.Context, budgetID uuid.UUID) ([]*domain.BudgetItem, error) {
	query := `
		SELECT id, budget_id, type, name, amount, is_auto_calculated, created_at
		FROM budget_items
		WHERE budget_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.c.query(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget items: %w", err)
	}
	return collect(rows, scanBudgetItem)
}

// CreateItem creates a new budget item
func (r *budgetRepository) CreateItem(ctx context.Context, it *domain.BudgetItem) error {
	query := `
		INSERT INTO budget_items (id, budget_id, type, name, amount, is_auto_calculated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.c.exec(ctx, query,
		it.ID,
		it.BudgetID,
		string(it.Type),
		it.Name,
		it.Amount.String(),
		it.IsAutoCalculated,
		formatTime(it.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create budget item: %w", err)
	}
	return nil
}

// UpdateItem persists the item's type, name, amount and auto flag
func (r *budgetRepository) UpdateItem(ctx context.Context, it *domain.BudgetItem) error {
	query := `
		UPDATE budget_items SET type = ?, name = ?, amount = ?, is_auto_calculated = ?
		WHERE id = ? AND budget_id = ?
	`
	return r.c.execOne(ctx, "update budget item", domain.NotFound("budget item", it.ID), query,
		string(it.Type),
		it.Name,
		it.Amount.String(),
		it.IsAutoCalculated,
		it.ID,
		it.BudgetID,
	)
}

// DeleteItem removes an item of the budget
func (r *budgetRepository) DeleteItem(ctx context.Context, budgetID, id uuid.UUID) error {
	return r.c.execOne(ctx, "delete budget item", domain.NotFound("budget item", id),
		`DELETE FROM budget_items WHERE id = ? AND budget_id = ?`, id, budgetID)
}

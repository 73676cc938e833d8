package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryPool selects which income pool a budget category draws from
type CategoryPool string

const (
	CategoryPoolFixed CategoryPool = "fixed"
	CategoryPoolExtra CategoryPool = "extra"
)

// BudgetItemType represents the itemized line kind of a budget
type BudgetItemType string

const (
	BudgetItemFixedIncome  BudgetItemType = "fixed_income"
	BudgetItemFixedExpense BudgetItemType = "fixed_expense"
	BudgetItemExtraIncome  BudgetItemType = "extra_income"
)

// AutoExtraIncomeName is the display name of the system-maintained extra income item
const AutoExtraIncomeName = "上月額外收入"

// Budget is the monthly plan of one user. At most one exists per (user, month).
// The aggregate fields are legacy; items are authoritative when present.
type Budget struct {
	ID           uuid.UUID
	UserID       string
	Month        Month
	FixedIncome  decimal.Decimal
	FixedExpense decimal.Decimal
	ExtraIncome  decimal.Decimal
	CreatedAt    time.Time
}

// Validate ensures the budget adheres to domain rules
func (b *Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return Invalid("user_id", "is required")
	}
	if b.Month.Year == 0 || b.Month.Month == 0 {
		return Invalid("month", "is required")
	}
	if b.FixedIncome.IsNegative() || b.FixedExpense.IsNegative() || b.ExtraIncome.IsNegative() {
		return Invalid("amount", "budget amounts cannot be negative")
	}
	return nil
}

// BudgetCategory is a named allocation bucket of a budget
type BudgetCategory struct {
	ID              uuid.UUID
	BudgetID        uuid.UUID
	Name            string
	Type            CategoryPool
	Percentage      decimal.Decimal // of the fixed pool, ignored for extra categories
	ExtraPercentage decimal.Decimal // of the extra pool
	Color           string
	Icon            string
}

// Validate ensures the category adheres to domain rules.
// Percentage sums across categories are intentionally not checked.
func (c *BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", "category name cannot be empty")
	}
	if c.Type != CategoryPoolFixed && c.Type != CategoryPoolExtra {
		return Invalid("type", "category type must be fixed or extra")
	}
	if !isPercentage(c.Percentage) {
		return Invalid("percentage", "must be between 0 and 100")
	}
	if !isPercentage(c.ExtraPercentage) {
		return Invalid("extra_percentage", "must be between 0 and 100")
	}
	return nil
}

// BudgetItem is an itemized income or expense line of a budget
type BudgetItem struct {
	ID               uuid.UUID
	BudgetID         uuid.UUID
	Type             BudgetItemType
	Name             string
	Amount           decimal.Decimal
	IsAutoCalculated bool
	CreatedAt        time.Time
}

// Validate ensures the item adheres to domain rules
func (i *BudgetItem) Validate() error {
	switch i.Type {
	case BudgetItemFixedIncome, BudgetItemFixedExpense, BudgetItemExtraIncome:
	default:
		return Invalid("type", "item type must be fixed_income, fixed_expense or extra_income")
	}
	if strings.TrimSpace(i.Name) == "" {
		return Invalid("name", "item name cannot be empty")
	}
	if i.Amount.IsNegative() {
		return Invalid("amount", "item amount cannot be negative")
	}
	if i.IsAutoCalculated && i.Type != BudgetItemExtraIncome {
		return Invalid("is_auto_calculated", "only extra_income items can be auto-calculated")
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

func isPercentage(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// Percent returns amount × pct / 100
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

package budget

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// Pools holds the two allocation bases of a month
type Pools struct {
	FixedIncome     decimal.Decimal
	FixedExpense    decimal.Decimal
	FixedDisposable decimal.Decimal // FixedIncome − FixedExpense
	ExtraIncome     decimal.Decimal
}

// CategoryAllocation is the amount one category receives from both pools
type CategoryAllocation struct {
	Category *domain.BudgetCategory
	Fixed    decimal.Decimal
	Extra    decimal.Decimal
	Total    decimal.Decimal
}

// Allocation is the result of allocating a month's pools to its categories
type Allocation struct {
	Pools
	Categories []CategoryAllocation

	// Allocated percentages per pool; sums over 100 are reported, not rejected
	FixedPercent decimal.Decimal
	ExtraPercent decimal.Decimal
}

// FixedUnallocated returns the share of the fixed pool no category claims (may be negative)
func (a *Allocation) FixedUnallocated() decimal.Decimal {
	return decimal.NewFromInt(100).Sub(a.FixedPercent)
}

// ExtraUnallocated returns the share of the extra pool no category claims (may be negative)
func (a *Allocation) ExtraUnallocated() decimal.Decimal {
	return decimal.NewFromInt(100).Sub(a.ExtraPercent)
}

// Total returns the sum of every category total
func (a *Allocation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range a.Categories {
		total = total.Add(c.Total)
	}
	return total
}

// ComputePools derives the pools of a budget.
// For each item type the item sum is authoritative whenever at least one item of that
// type exists; otherwise the budget's aggregate field is used.
func ComputePools(b *domain.Budget, items []*domain.BudgetItem) Pools {
	sums := map[domain.BudgetItemType]decimal.Decimal{}
	seen := map[domain.BudgetItemType]bool{}
	for _, it := range items {
		sums[it.Type] = sums[it.Type].Add(it.Amount)
		seen[it.Type] = true
	}

	pick := func(t domain.BudgetItemType, fallback decimal.Decimal) decimal.Decimal {
		if seen[t] {
			return sums[t]
		}
		return fallback
	}

	p := Pools{
		FixedIncome:  pick(domain.BudgetItemFixedIncome, b.FixedIncome),
		FixedExpense: pick(domain.BudgetItemFixedExpense, b.FixedExpense),
		ExtraIncome:  pick(domain.BudgetItemExtraIncome, b.ExtraIncome),
	}
	p.FixedDisposable = p.FixedIncome.Sub(p.FixedExpense)
	return p
}

// Allocate converts the pools into per-category amounts.
//   - fixed = fixedDisposable × percentage/100, for fixed categories only
//   - extra = extraIncome × extraPercentage/100, for every category
//   - total = fixed + extra
func Allocate(b *domain.Budget, items []*domain.BudgetItem, categories []*domain.BudgetCategory) *Allocation {
	a := &Allocation{
		Pools:      ComputePools(b, items),
		Categories: make([]CategoryAllocation, 0, len(categories)),
	}

	for _, c := range categories {
		fixed := decimal.Zero
		if c.Type == domain.CategoryPoolFixed {
			fixed = domain.Percent(a.FixedDisposable, c.Percentage)
			a.FixedPercent = a.FixedPercent.Add(c.Percentage)
		}
		extra := domain.Percent(a.ExtraIncome, c.ExtraPercentage)
		a.ExtraPercent = a.ExtraPercent.Add(c.ExtraPercentage)

		a.Categories = append(a.Categories, CategoryAllocation{
			Category: c,
			Fixed:    fixed,
			Extra:    extra,
			Total:    fixed.Add(extra),
		})
	}
	return a
}

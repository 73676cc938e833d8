package budget

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(t domain.BudgetItemType, amount int64) *domain.BudgetItem {
	return &domain.BudgetItem{ID: uuid.New(), Type: t, Name: string(t), Amount: decimal.NewFromInt(amount)}
}

func category(name string, pool domain.CategoryPool, pct, extraPct int64) *domain.BudgetCategory {
	return &domain.BudgetCategory{
		ID:              uuid.New(),
		Name:            name,
		Type:            pool,
		Percentage:      decimal.NewFromInt(pct),
		ExtraPercentage: decimal.NewFromInt(extraPct),
	}
}

func TestComputePools(t *testing.T) {
	b := &domain.Budget{
		FixedIncome:  decimal.NewFromInt(90000),
		FixedExpense: decimal.NewFromInt(10000),
		ExtraIncome:  decimal.NewFromInt(7000),
	}

	tests := []struct {
		name            string
		items           []*domain.BudgetItem
		fixedIncome     string
		fixedDisposable string
		extra           string
	}{
		{
			name:            "no items falls back to budget fields",
			fixedIncome:     "90000",
			fixedDisposable: "80000",
			extra:           "7000",
		},
		{
			name: "items are authoritative per type",
			items: []*domain.BudgetItem{
				item(domain.BudgetItemFixedIncome, 50000),
				item(domain.BudgetItemFixedIncome, 10000),
				item(domain.BudgetItemFixedExpense, 20000),
			},
			fixedIncome:     "60000",
			fixedDisposable: "40000",
			extra:           "7000",
		},
		{
			name:            "zero-amount item still overrides",
			items:           []*domain.BudgetItem{item(domain.BudgetItemExtraIncome, 0)},
			fixedIncome:     "90000",
			fixedDisposable: "80000",
			extra:           "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputePools(b, tt.items)
			assert.Equal(t, tt.fixedIncome, p.FixedIncome.String())
			assert.Equal(t, tt.fixedDisposable, p.FixedDisposable.String())
			assert.Equal(t, tt.extra, p.ExtraIncome.String())
		})
	}
}

func TestAllocate(t *testing.T) {
	b := &domain.Budget{}
	items := []*domain.BudgetItem{
		item(domain.BudgetItemFixedIncome, 60000),
		item(domain.BudgetItemFixedExpense, 20000),
		item(domain.BudgetItemExtraIncome, 10000),
	}
	categories := []*domain.BudgetCategory{
		category("Food", domain.CategoryPoolFixed, 50, 20),
		category("Fun", domain.CategoryPoolExtra, 30, 50),
	}

	a := Allocate(b, items, categories)
	require.Len(t, a.Categories, 2)

	food := a.Categories[0]
	assert.Equal(t, "20000", food.Fixed.String())
	assert.Equal(t, "2000", food.Extra.String())
	assert.Equal(t, "22000", food.Total.String())

	fun := a.Categories[1]
	assert.True(t, fun.Fixed.IsZero(), "extra categories ignore the fixed percentage")
	assert.Equal(t, "5000", fun.Extra.String())

	assert.Equal(t, "50", a.FixedPercent.String())
	assert.Equal(t, "70", a.ExtraPercent.String())
	assert.Equal(t, "50", a.FixedUnallocated().String())
	assert.Equal(t, "27000", a.Total().String())
}

func TestAllocate_Additivity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for round := 0; round < 100; round++ {
		items := []*domain.BudgetItem{
			item(domain.BudgetItemFixedIncome, int64(rng.Intn(100000))),
			item(domain.BudgetItemFixedExpense, int64(rng.Intn(50000))),
			item(domain.BudgetItemExtraIncome, int64(rng.Intn(20000))),
		}

		// split 100 percent of each pool across a random number of categories
		n := rng.Intn(5) + 1
		fixedLeft, extraLeft := int64(100), int64(100)
		exact := rng.Intn(2) == 0
		var categories []*domain.BudgetCategory
		for i := 0; i < n; i++ {
			fp, ep := fixedLeft, extraLeft
			if i < n-1 || !exact {
				fp = rng.Int63n(fixedLeft + 1)
				ep = rng.Int63n(extraLeft + 1)
			}
			fixedLeft -= fp
			extraLeft -= ep
			categories = append(categories, category("c", domain.CategoryPoolFixed, fp, ep))
		}

		a := Allocate(&domain.Budget{}, items, categories)
		fixedSum, extraSum := decimal.Zero, decimal.Zero
		for _, c := range a.Categories {
			fixedSum = fixedSum.Add(c.Fixed)
			extraSum = extraSum.Add(c.Extra)
		}

		if a.FixedDisposable.IsNegative() {
			assert.True(t, fixedSum.GreaterThanOrEqual(a.FixedDisposable))
		} else {
			assert.True(t, fixedSum.LessThanOrEqual(a.FixedDisposable))
		}
		assert.True(t, extraSum.LessThanOrEqual(a.ExtraIncome))

		if exact {
			assert.True(t, fixedSum.Equal(a.FixedDisposable), "round %d: %s != %s", round, fixedSum, a.FixedDisposable)
			assert.True(t, extraSum.Equal(a.ExtraIncome), "round %d: %s != %s", round, extraSum, a.ExtraIncome)
		}
	}
}

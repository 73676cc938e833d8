package disposable

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/budget"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
)

// JarAllocation is a savings jar together with its categories
type JarAllocation struct {
	Jar        *domain.SavingsJar
	Categories []*domain.SavingsJarCategory
}

// Row is the disposable amount of one category name
type Row struct {
	Name   string
	Color  string
	Icon   string
	Budget decimal.Decimal // from the budget allocation
	Jar    decimal.Decimal // from included savings jars
	// JarOnly marks a row that no budget category matched
	JarOnly bool

	Used      decimal.Decimal
	Overage   decimal.Decimal // max(0, used − allocated)
	Remaining decimal.Decimal // allocated − used
}

// Allocated returns the row's budget plus jar amount
func (r *Row) Allocated() decimal.Decimal {
	return r.Budget.Add(r.Jar)
}

// Disposable is the merged per-category disposable income of a month
type Disposable struct {
	Rows  []Row
	Total decimal.Decimal
}

// Aggregate merges the budget allocation with the categories of every jar that is
// included in disposable income. Jar categories match budget categories by exact,
// case-sensitive name; unmatched ones are appended as new rows in input order.
func Aggregate(alloc *budget.Allocation, jars []JarAllocation) *Disposable {
	d := &Disposable{}
	index := make(map[string]int)

	if alloc != nil {
		for _, c := range alloc.Categories {
			if i, ok := index[c.Category.Name]; ok {
				d.Rows[i].Budget = d.Rows[i].Budget.Add(c.Total)
				continue
			}
			index[c.Category.Name] = len(d.Rows)
			d.Rows = append(d.Rows, Row{
				Name:   c.Category.Name,
				Color:  c.Category.Color,
				Icon:   c.Category.Icon,
				Budget: c.Total,
			})
		}
	}

	for _, ja := range jars {
		if ja.Jar == nil || !ja.Jar.IncludeInDisposable {
			continue
		}
		for _, jc := range ja.Categories {
			amount := domain.Percent(ja.Jar.CurrentAmount, jc.Percentage)
			if i, ok := index[jc.Name]; ok {
				d.Rows[i].Jar = d.Rows[i].Jar.Add(amount)
				continue
			}
			index[jc.Name] = len(d.Rows)
			d.Rows = append(d.Rows, Row{
				Name:    jc.Name,
				Color:   jc.Color,
				Icon:    jc.Icon,
				Jar:     amount,
				JarOnly: true,
			})
		}
	}

	for i := range d.Rows {
		d.Total = d.Total.Add(d.Rows[i].Allocated())
	}
	return d
}

// Summary is a month's disposable income compared against actual spending
type Summary struct {
	Month domain.Month
	Rows  []Row

	TotalDisposable decimal.Decimal
	Income          decimal.Decimal
	Expense         decimal.Decimal
	Remaining       decimal.Decimal // TotalDisposable − Expense

	// Unbudgeted holds spending in categories without a row
	Unbudgeted map[string]decimal.Decimal
}

// Usage compares d against the month's ledger entries under the cash-flow rules.
// Transfers and jar deposits never count, investment entries count only their P/L.
func Usage(month domain.Month, d *Disposable, entries []*domain.LedgerEntry) *Summary {
	s := &Summary{
		Month:           month,
		Rows:            make([]Row, len(d.Rows)),
		TotalDisposable: d.Total,
		Unbudgeted:      make(map[string]decimal.Decimal),
	}
	copy(s.Rows, d.Rows)

	used := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if !month.Contains(e.Date) {
			continue
		}
		income, expense := ledger.CashFlow(e)
		s.Income = s.Income.Add(income)
		s.Expense = s.Expense.Add(expense)
		if expense.IsPositive() {
			used[e.Category] = used[e.Category].Add(expense)
		}
	}

	matched := make(map[string]bool, len(s.Rows))
	for i := range s.Rows {
		r := &s.Rows[i]
		r.Used = used[r.Name]
		r.Remaining = r.Allocated().Sub(r.Used)
		r.Overage = decimal.Zero
		if r.Remaining.IsNegative() {
			r.Overage = r.Remaining.Neg()
		}
		matched[r.Name] = true
	}
	for name, amount := range used {
		if !matched[name] {
			s.Unbudgeted[name] = amount
		}
	}

	s.Remaining = s.TotalDisposable.Sub(s.Expense)
	return s
}

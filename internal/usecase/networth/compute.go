package networth

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

var one = decimal.NewFromInt(1)

// AccountValue is one included account converted to the reporting currency
type AccountValue struct {
	Account   *domain.Account
	Rate      decimal.Decimal
	Converted decimal.Decimal
}

// TypeTotal is the converted sum of the accounts sharing a type
type TypeTotal struct {
	Type   string
	Amount decimal.Decimal
}

// Summary is the user's current net worth in the reporting currency
type Summary struct {
	Currency    string
	NetWorth    decimal.Decimal
	Assets      decimal.Decimal
	Liabilities decimal.Decimal // absolute value
	Breakdown   []TypeTotal
	Accounts    []AccountValue
}

// ResolveRate returns the rate converting code into the reporting currency.
// The oracle table wins over the account's stored rate, which is the fallback.
// No rate is ever invented: without either source the rate is 1.
func ResolveRate(account *domain.Account, rates map[string]decimal.Decimal, reporting string) decimal.Decimal {
	if account.Currency == reporting {
		return one
	}
	if r, ok := rates[account.Currency]; ok && r.IsPositive() {
		return r
	}
	if account.ExchangeRate.IsPositive() {
		return account.ExchangeRate
	}
	return one
}

// Compute sums the included accounts into net worth, assets, liabilities and a
// breakdown by account type (sorted by amount descending, then type)
func Compute(accounts []*domain.Account, rates map[string]decimal.Decimal, reporting string) *Summary {
	s := &Summary{Currency: reporting}
	byType := make(map[string]decimal.Decimal)

	for _, a := range accounts {
		if !a.IncludeInTotal {
			continue
		}
		rate := ResolveRate(a, rates, reporting)
		converted := a.Balance
		if a.Currency != reporting {
			converted = a.Balance.Mul(rate)
		}

		s.Accounts = append(s.Accounts, AccountValue{Account: a, Rate: rate, Converted: converted})
		if converted.IsNegative() {
			s.Liabilities = s.Liabilities.Add(converted.Neg())
		} else {
			s.Assets = s.Assets.Add(converted)
		}
		byType[a.Type] = byType[a.Type].Add(converted)
	}
	s.NetWorth = s.Assets.Sub(s.Liabilities)

	for t, amount := range byType {
		s.Breakdown = append(s.Breakdown, TypeTotal{Type: t, Amount: amount})
	}
	sort.Slice(s.Breakdown, func(i, j int) bool {
		if !s.Breakdown[i].Amount.Equal(s.Breakdown[j].Amount) {
			return s.Breakdown[i].Amount.GreaterThan(s.Breakdown[j].Amount)
		}
		return s.Breakdown[i].Type < s.Breakdown[j].Type
	})
	return s
}

// Movement is a ledger entry's signed effect on net worth in the reporting currency
type Movement struct {
	Date  time.Time
	Delta decimal.Decimal
}

// Movements converts entries into net-worth movements. Entries whose account is gone
// or excluded from the total are skipped: their effect is not part of the current total.
// Every entry is valued at today's rate of its account, so a reconstructed point is the
// balances of that date valued at today's rates. The two sides of a cross-currency
// transfer therefore net to the difference between its booking rate and today's rate.
func Movements(entries []*domain.LedgerEntry, accounts []*domain.Account, rates map[string]decimal.Decimal, reporting string) []Movement {
	rateOf := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		if a.IncludeInTotal {
			rateOf[a.ID] = ResolveRate(a, rates, reporting)
		}
	}

	out := make([]Movement, 0, len(entries))
	for _, e := range entries {
		if e.AccountID == nil {
			continue
		}
		rate, ok := rateOf[*e.AccountID]
		if !ok {
			continue
		}
		out = append(out, Movement{Date: e.Date, Delta: e.SignedAmount().Mul(rate)})
	}
	return out
}

// ReconstructAt walks every movement dated strictly after t backwards from current:
// income is subtracted, expense added back. The result is floored at 0.
func ReconstructAt(current decimal.Decimal, movements []Movement, t time.Time) decimal.Decimal {
	v := current
	cutoff := domain.DateOf(t)
	for _, m := range movements {
		if m.Date.After(cutoff) {
			v = v.Sub(m.Delta)
		}
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// SamplePoints returns the chart dates of a window of months ending today.
// A window of one month yields every day of the current month up to today; longer
// windows yield one point per month-end with today standing in for the current month.
func SamplePoints(months int, today time.Time) []time.Time {
	today = domain.DateOf(today)
	current := domain.MonthOf(today)

	if months <= 1 {
		var points []time.Time
		for d := current.Start(); !d.After(today); d = d.AddDate(0, 0, 1) {
			points = append(points, d)
		}
		return points
	}

	points := make([]time.Time, 0, months)
	m := current
	for i := 1; i < months; i++ {
		m = m.Prev()
	}
	for i := 0; i < months; i++ {
		if m == current {
			points = append(points, today)
		} else {
			points = append(points, m.LastDay())
		}
		m = m.Next()
	}
	return points
}

// Point is one value of the net-worth history chart
type Point struct {
	Date     time.Time
	NetWorth decimal.Decimal
}

// Series reconstructs net worth at every sample point
func Series(current decimal.Decimal, movements []Movement, points []time.Time) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		out = append(out, Point{Date: p, NetWorth: ReconstructAt(current, movements, p)})
	}
	return out
}

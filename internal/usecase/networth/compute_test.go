package networth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/adapter/repository/memory"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func acct(typ, currency string, balance, rate int64, included bool) *domain.Account {
	return &domain.Account{
		ID:             uuid.New(),
		UserID:         "user-1",
		Type:           typ,
		Name:           typ,
		Balance:        decimal.NewFromInt(balance),
		Currency:       currency,
		ExchangeRate:   decimal.NewFromInt(rate),
		IncludeInTotal: included,
	}
}

func TestCompute(t *testing.T) {
	accounts := []*domain.Account{
		acct("Cash", "TWD", 10000, 1, true),
		acct("US Stocks", "USD", 1000, 30, true),
		acct("Credit", "TWD", -4000, 1, true),
		acct("Cash", "TWD", 500, 1, true),
		acct("Hidden", "TWD", 99999, 1, false),
	}

	s := Compute(accounts, map[string]decimal.Decimal{"USD": decimal.NewFromInt(32)}, "TWD")

	assert.Equal(t, "42500", s.Assets.String())
	assert.Equal(t, "4000", s.Liabilities.String())
	assert.Equal(t, "38500", s.NetWorth.String())
	assert.Len(t, s.Accounts, 4)

	require.Len(t, s.Breakdown, 3)
	assert.Equal(t, "US Stocks", s.Breakdown[0].Type)
	assert.Equal(t, "32000", s.Breakdown[0].Amount.String())
	assert.Equal(t, "Cash", s.Breakdown[1].Type)
	assert.Equal(t, "10500", s.Breakdown[1].Amount.String())
	assert.Equal(t, "-4000", s.Breakdown[2].Amount.String())
}

func TestResolveRate(t *testing.T) {
	usd := acct("x", "USD", 0, 30, true)
	rates := map[string]decimal.Decimal{"USD": decimal.NewFromInt(32), "JPY": decimal.Zero}

	assert.Equal(t, "32", ResolveRate(usd, rates, "TWD").String())
	assert.Equal(t, "30", ResolveRate(usd, nil, "TWD").String())
	assert.Equal(t, "1", ResolveRate(acct("x", "TWD", 0, 5, true), rates, "TWD").String())

	jpy := acct("x", "JPY", 0, 0, true)
	jpy.ExchangeRate = decimal.RequireFromString("0.21")
	assert.Equal(t, "0.21", ResolveRate(jpy, rates, "TWD").String(), "non-positive oracle rate falls back to stored rate")
}

func TestReconstructAt(t *testing.T) {
	movements := []Movement{
		{Date: domain.Date(2024, time.March, 5), Delta: decimal.NewFromInt(1000)},
		{Date: domain.Date(2024, time.March, 10), Delta: decimal.NewFromInt(-300)},
		{Date: domain.Date(2024, time.March, 20), Delta: decimal.NewFromInt(500)},
	}
	current := decimal.NewFromInt(5000)

	tests := []struct {
		at       time.Time
		expected string
	}{
		{domain.Date(2024, time.March, 20), "5000"},
		{domain.Date(2024, time.March, 19), "4500"},
		{domain.Date(2024, time.March, 10), "4500"},
		{domain.Date(2024, time.March, 9), "4800"},
		{domain.Date(2024, time.March, 1), "3800"},
	}
	for _, tt := range tests {
		t.Run(domain.FormatDate(tt.at), func(t *testing.T) {
			assert.Equal(t, tt.expected, ReconstructAt(current, movements, tt.at).String())
		})
	}
}

func TestReconstructAt_NeverNegative(t *testing.T) {
	movements := []Movement{
		{Date: domain.Date(2024, time.March, 5), Delta: decimal.NewFromInt(10000)},
	}

	got := ReconstructAt(decimal.NewFromInt(100), movements, domain.Date(2024, time.March, 1))
	assert.True(t, got.IsZero())

	for _, p := range Series(decimal.NewFromInt(-50), nil, SamplePoints(3, domain.Date(2024, time.March, 15))) {
		assert.False(t, p.NetWorth.IsNegative())
	}
}

func TestSamplePoints(t *testing.T) {
	today := time.Date(2024, time.March, 4, 18, 30, 0, 0, time.UTC)

	daily := SamplePoints(1, today)
	require.Len(t, daily, 4)
	assert.Equal(t, domain.Date(2024, time.March, 1), daily[0])
	assert.Equal(t, domain.Date(2024, time.March, 4), daily[3])

	monthly := SamplePoints(3, today)
	assert.Equal(t, []time.Time{
		domain.Date(2024, time.January, 31),
		domain.Date(2024, time.February, 29),
		domain.Date(2024, time.March, 4),
	}, monthly)
}

func TestMovements_SkipsDetachedAndExcluded(t *testing.T) {
	usd := acct("US", "USD", 0, 30, true)
	hidden := acct("Hidden", "TWD", 0, 1, false)
	missing := uuid.New()

	entries := []*domain.LedgerEntry{
		{Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(10), AccountID: &usd.ID},
		{Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(10), AccountID: &hidden.ID},
		{Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(10), AccountID: &missing},
		{Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(10)},
	}

	got := Movements(entries, []*domain.Account{usd, hidden}, nil, "TWD")
	require.Len(t, got, 1)
	assert.Equal(t, "300", got[0].Delta.String())
}

func TestReconstructAt_CrossCurrencyTransferAtTodaysRates(t *testing.T) {
	// 10 USD moved to TWD at 32, today's rate is 30
	usd := acct("US", "USD", 90, 30, true)
	twd := acct("Cash", "TWD", 320, 1, true)
	accounts := []*domain.Account{usd, twd}
	day := domain.Date(2024, time.March, 5)

	entries := []*domain.LedgerEntry{
		{Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(10), AccountID: &usd.ID, Date: day, Kind: domain.EntryKindTransfer},
		{Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(320), AccountID: &twd.ID, Date: day, Kind: domain.EntryKindTransfer},
	}
	movements := Movements(entries, accounts, nil, "TWD")
	current := Compute(accounts, nil, "TWD").NetWorth
	assert.Equal(t, "3020", current.String())

	// 100 USD and 0 TWD before the transfer, valued at today's rate
	before := ReconstructAt(current, movements, domain.Date(2024, time.March, 1))
	assert.Equal(t, "3000", before.String())
	assert.Equal(t, "3020", ReconstructAt(current, movements, day).String())
}

// MockRateOracle is a mock implementation of RateOracle for testing
type MockRateOracle struct {
	mock.Mock
}

func (m *MockRateOracle) Rates(ctx context.Context) map[string]decimal.Decimal {
	args := m.Called(ctx)
	return args.Get(0).(map[string]decimal.Decimal)
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rates := new(MockRateOracle)
	rates.On("Rates", ctx).Return(map[string]decimal.Decimal{})

	svc := NewNetWorthService(store, rates, "")
	svc.Now = func() time.Time { return time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC) }

	wallet := acct("Cash", "TWD", 2000, 1, true)
	require.NoError(t, store.Repos().Accounts.Create(ctx, wallet))
	require.NoError(t, store.Repos().Ledger.Create(ctx, &domain.LedgerEntry{
		ID: uuid.New(), UserID: "user-1", Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(1500),
		Category: "Salary", AccountID: &wallet.ID, Date: domain.Date(2024, time.March, 10), Kind: domain.EntryKindRegular,
	}))
	require.NoError(t, store.Repos().Ledger.Create(ctx, &domain.LedgerEntry{
		ID: uuid.New(), UserID: "user-1", Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(700),
		Category: "Rent", AccountID: &wallet.ID, Date: domain.Date(2024, time.February, 1), Kind: domain.EntryKindRegular,
	}))

	points, err := svc.History(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "1200", points[0].NetWorth.String())
	assert.Equal(t, "500", points[1].NetWorth.String())
	assert.Equal(t, "2000", points[2].NetWorth.String())

	_, err = svc.History(ctx, "user-1", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2000", summary.NetWorth.String())
	assert.Equal(t, "TWD", summary.Currency)
}

package networth

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// MaxHistoryMonths bounds the history window
const MaxHistoryMonths = 60

// NetWorthService computes current and historical net worth
type NetWorthService struct {
	Store     domain.Store
	Rates     domain.RateOracle
	Reporting string
	Now       func() time.Time
}

// NewNetWorthService creates a new NetWorthService instance
func NewNetWorthService(store domain.Store, rates domain.RateOracle, reporting string) *NetWorthService {
	if reporting == "" {
		reporting = domain.ReportingCurrency
	}
	return &NetWorthService{
		Store:     store,
		Rates:     rates,
		Reporting: reporting,
		Now:       time.Now,
	}
}

func (s *NetWorthService) rates(ctx context.Context) map[string]decimal.Decimal {
	if s.Rates == nil {
		return nil
	}
	return s.Rates.Rates(ctx)
}

// Summary returns the user's current net worth
func (s *NetWorthService) Summary(ctx context.Context, userID string) (*Summary, error) {
	accounts, err := s.Store.Repos().Accounts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Compute(accounts, s.rates(ctx), s.Reporting), nil
}

// History reconstructs net worth over the last months (1 = daily points this month)
func (s *NetWorthService) History(ctx context.Context, userID string, months int) ([]Point, error) {
	if months < 1 || months > MaxHistoryMonths {
		return nil, domain.Invalid("months", "must be between 1 and 60")
	}

	repos := s.Store.Repos()
	accounts, err := repos.Accounts.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	points := SamplePoints(months, s.Now())
	entries, err := repos.Ledger.List(ctx, userID, domain.LedgerFilter{From: points[0].AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}

	rates := s.rates(ctx)
	current := Compute(accounts, rates, s.Reporting).NetWorth
	return Series(current, Movements(entries, accounts, rates, s.Reporting), points), nil
}

package disposable

import (
	"context"

	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/budget"
)

// Evaluator produces a reconciled, allocated budget month
type Evaluator interface {
	Evaluate(ctx context.Context, userID string, month domain.Month) (*budget.Evaluation, error)
}

// DisposableService builds monthly disposable-income summaries
type DisposableService struct {
	Store   domain.Store
	Budgets Evaluator
}

// NewDisposableService creates a new DisposableService instance
func NewDisposableService(store domain.Store, budgets Evaluator) *DisposableService {
	return &DisposableService{
		Store:   store,
		Budgets: budgets,
	}
}

// MonthSummary evaluates the month's budget, merges in the included jars and compares
// the result with the month's ledger
func (s *DisposableService) MonthSummary(ctx context.Context, userID string, month domain.Month) (*Summary, error) {
	eval, err := s.Budgets.Evaluate(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	repos := s.Store.Repos()
	jars, err := LoadJars(ctx, repos.Jars, userID)
	if err != nil {
		return nil, err
	}

	entries, err := repos.Ledger.List(ctx, userID, domain.LedgerFilter{From: month.Start(), To: month.End()})
	if err != nil {
		return nil, err
	}

	return Usage(month, Aggregate(eval.Allocation, jars), entries), nil
}

// LoadJars loads every jar of the user that is included in disposable income
func LoadJars(ctx context.Context, jars domain.SavingsJarRepository, userID string) ([]JarAllocation, error) {
	all, err := jars.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []JarAllocation
	for _, j := range all {
		if !j.IncludeInDisposable {
			continue
		}
		categories, err := jars.ListCategories(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, JarAllocation{Jar: j, Categories: categories})
	}
	return out, nil
}

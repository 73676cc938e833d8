// Package app wires the services shared by the server and the CLI
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/simaogato/moneyjar/internal/adapter/pricing"
	"github.com/simaogato/moneyjar/internal/adapter/repository/sqlstore"
	"github.com/simaogato/moneyjar/internal/config"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/account"
	"github.com/simaogato/moneyjar/internal/usecase/budget"
	"github.com/simaogato/moneyjar/internal/usecase/disposable"
	"github.com/simaogato/moneyjar/internal/usecase/investment"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
	"github.com/simaogato/moneyjar/internal/usecase/networth"
	"github.com/simaogato/moneyjar/internal/usecase/savings"
)

// Services holds every use case service over one store
type Services struct {
	Accounts    *account.AccountService
	Ledger      *ledger.Service
	Investments *investment.InvestmentService
	Budgets     *budget.BudgetService
	Disposable  *disposable.DisposableService
	Savings     *savings.SavingsService
	NetWorth    *networth.NetWorthService
	Rates       *pricing.RateCache
}

// NewServices builds the services. The oracles are only wired when their URLs are set;
// without a rate source the fallback table is served.
func NewServices(cfg *config.Config, store domain.Store, log zerolog.Logger) *Services {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	var rateSource pricing.RateSource
	if cfg.RatesURL != "" {
		rateSource = &pricing.HTTPRateSource{Client: client, URL: cfg.RatesURL}
	}
	rates := pricing.NewRateCache(rateSource, cfg.RatesTTL, log.With().Str("component", "rates").Logger())

	var prices domain.PriceOracle
	if cfg.PricesURL != "" {
		prices = &pricing.HTTPPriceSource{Client: client, BaseURL: cfg.PricesURL}
	}

	budgets := budget.NewBudgetService(store, log)
	return &Services{
		Accounts:    account.NewAccountService(store, log),
		Ledger:      ledger.NewService(store, log),
		Investments: investment.NewInvestmentService(store, prices, log),
		Budgets:     budgets,
		Disposable:  disposable.NewDisposableService(store, budgets),
		Savings:     savings.NewSavingsService(store, log),
		NetWorth:    networth.NewNetWorthService(store, rates, cfg.ReportingCurrency),
		Rates:       rates,
	}
}

// OpenStore opens the configured database and applies pending migrations
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlstore.DB, *sqlstore.Store, error) {
	db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	applied, err := db.Migrate(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	for _, name := range applied {
		log.Info().Str("migration", name).Msg("migration applied")
	}
	return db, sqlstore.NewStore(db), nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/simaogato/moneyjar/internal/app"
	"github.com/simaogato/moneyjar/internal/auth"
	"github.com/simaogato/moneyjar/internal/config"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/logger"
	"github.com/simaogato/moneyjar/internal/usecase/disposable"
	"github.com/simaogato/moneyjar/internal/usecase/investment"
	"github.com/simaogato/moneyjar/internal/usecase/networth"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&tokenCmd{},
	&netWorthCmd{},
	&historyCmd{},
	&summaryCmd{},
	&holdingsCmd{},
}

// session opens the configured store and builds the services on top of it
type session struct {
	cfg      *config.Config
	log      zerolog.Logger
	services *app.Services
	close    func()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	db, store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		log:      log,
		services: app.NewServices(cfg, store, log),
		close:    func() { _ = db.Close() },
	}, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

// userFlag registers the -user flag shared by the report commands
func userFlag(f *flag.FlagSet, user *string) {
	f.StringVar(user, "user", "", "The user id to report on (required).")
}

func requireUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("-user is required")
	}
	return nil
}

// ---------- migrate ----------

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `moneyjar migrate

  Applies every pending migration of the configured driver (MONEYJAR_DB_DRIVER,
  MONEYJAR_DB_DSN) and prints their names.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// openSession migrates as part of opening the store
	s, err := openSession(ctx)
	if err != nil {
		return fail(err)
	}
	defer s.close()
	fmt.Println("database is up to date")
	return subcommands.ExitSuccess
}

// ---------- token ----------

type tokenCmd struct {
	user string
	ttl  time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue an API token for a user" }
func (*tokenCmd) Usage() string {
	return `moneyjar token -user <id> [-ttl 24h]

  Signs a bearer token with MONEYJAR_JWT_SECRET. The token works for both the
  HTTP API and the gRPC query service.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.user)
	f.DurationVar(&c.ttl, "ttl", auth.DefaultTTL, "How long the token stays valid.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.user); err != nil {
		return fail(err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fail(err)
	}
	token, err := auth.GenerateToken(cfg.JWTSecret, c.user, c.ttl)
	if err != nil {
		return fail(err)
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}

// ---------- networth ----------

type netWorthCmd struct {
	user string
}

func (*netWorthCmd) Name() string     { return "networth" }
func (*netWorthCmd) Synopsis() string { return "display the current net worth per account" }
func (*netWorthCmd) Usage() string {
	return `moneyjar networth -user <id>

  Converts every included account to the reporting currency and prints the
  per-account values, the per-type breakdown and the total.
`
}

func (c *netWorthCmd) SetFlags(f *flag.FlagSet) { userFlag(f, &c.user) }

func (c *netWorthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.user); err != nil {
		return fail(err)
	}
	s, err := openSession(ctx)
	if err != nil {
		return fail(err)
	}
	defer s.close()

	summary, err := s.services.NetWorth.Summary(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	if err := writeNetWorth(os.Stdout, summary); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func writeNetWorth(w io.Writer, s *networth.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Account\tType\tBalance\tRate\tValue\t")
	for _, a := range s.Accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			a.Account.Name, a.Account.Type,
			domain.FormatAmount(a.Account.Balance, a.Account.Currency),
			a.Rate.String(), a.Converted.StringFixed(2))
	}
	fmt.Fprintln(tw, "\t\t\t\t\t")
	for _, b := range s.Breakdown {
		fmt.Fprintf(tw, "%s\t\t\t\t%s\t\n", b.Type, b.Amount.StringFixed(2))
	}
	fmt.Fprintf(tw, "Net worth\t\t\t\t%s\t\n", domain.FormatAmount(s.NetWorth, s.Currency))
	return tw.Flush()
}

// ---------- history ----------

type historyCmd struct {
	user   string
	months int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the reconstructed net worth history" }
func (*historyCmd) Usage() string {
	return `moneyjar history -user <id> [-months 12]

  Walks the ledger backwards from today's balances and prints one point per
  month (or per day when -months is 1).
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.user)
	f.IntVar(&c.months, "months", 12, "Number of months to reconstruct (1 to 60).")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.user); err != nil {
		return fail(err)
	}
	s, err := openSession(ctx)
	if err != nil {
		return fail(err)
	}
	defer s.close()

	points, err := s.services.NetWorth.History(ctx, c.user, c.months)
	if err != nil {
		return fail(err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tNet worth\t")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t\n", domain.FormatDate(p.Date), p.NetWorth.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// ---------- summary ----------

type summaryCmd struct {
	user  string
	month string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the disposable-income summary of a month" }
func (*summaryCmd) Usage() string {
	return `moneyjar summary -user <id> [-month YYYY-MM]

  Reconciles the month's budget and prints each category's allocation, usage
  and remaining amount.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.user)
	f.StringVar(&c.month, "month", "", "The month to summarize (defaults to the current month).")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.user); err != nil {
		return fail(err)
	}
	month := domain.MonthOf(time.Now())
	if c.month != "" {
		m, err := domain.ParseMonth(c.month)
		if err != nil {
			return fail(err)
		}
		month = m
	}

	s, err := openSession(ctx)
	if err != nil {
		return fail(err)
	}
	defer s.close()

	summary, err := s.services.Disposable.MonthSummary(ctx, c.user, month)
	if err != nil {
		return fail(err)
	}
	if err := writeSummary(os.Stdout, summary); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func writeSummary(w io.Writer, s *disposable.Summary) error {
	fmt.Fprintf(w, "Disposable income for %s\n\n", s.Month)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Category\tAllocated\tUsed\tRemaining\t")
	for _, r := range s.Rows {
		name := r.Name
		if r.JarOnly {
			name += " (jar)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", name,
			r.Allocated().StringFixed(2), r.Used.StringFixed(2), r.Remaining.StringFixed(2))
	}
	fmt.Fprintln(tw, "\t\t\t\t")
	fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t\n",
		s.TotalDisposable.StringFixed(2), s.Expense.StringFixed(2), s.Remaining.StringFixed(2))
	return tw.Flush()
}

// ---------- holdings ----------

type holdingsCmd struct {
	user    string
	refresh bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display open positions with unrealized results" }
func (*holdingsCmd) Usage() string {
	return `moneyjar holdings -user <id> [-refresh]

  Prints every open position. With -refresh, prices are fetched from
  MONEYJAR_PRICES_URL first.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.user)
	f.BoolVar(&c.refresh, "refresh", false, "Refresh market prices before printing.")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.user); err != nil {
		return fail(err)
	}
	s, err := openSession(ctx)
	if err != nil {
		return fail(err)
	}
	defer s.close()

	if c.refresh {
		n, err := s.services.Investments.RefreshPrices(ctx, c.user)
		if err != nil {
			return fail(err)
		}
		s.log.Info().Int("updated", n).Msg("prices refreshed")
	}

	portfolio, err := s.services.Investments.Portfolio(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	if err := writeHoldings(os.Stdout, portfolio); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func writeHoldings(w io.Writer, p *investment.Portfolio) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Ticker\tQuantity\tAvg cost\tPrice\tValue\tUnrealized\t%\t")
	for _, hv := range p.Holdings {
		h := hv.Holding
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			h.Ticker, h.Quantity.String(), h.AverageCost.StringFixed(2), h.CurrentPrice.StringFixed(2),
			hv.ProfitLoss.MarketValue.StringFixed(2), hv.ProfitLoss.Unrealized.StringFixed(2),
			hv.ProfitLoss.Percent.StringFixed(2))
	}
	fmt.Fprintln(tw, "\t\t\t\t\t\t\t")
	fmt.Fprintf(tw, "Total\t\t%s\t\t%s\t%s\t%s\t\n",
		p.TotalCost.StringFixed(2), p.TotalValue.StringFixed(2),
		p.TotalUnrealized.StringFixed(2), p.Percent.StringFixed(2))
	return tw.Flush()
}

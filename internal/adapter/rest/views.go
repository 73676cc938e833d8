package rest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/budget"
	"github.com/simaogato/moneyjar/internal/usecase/disposable"
	"github.com/simaogato/moneyjar/internal/usecase/investment"
	"github.com/simaogato/moneyjar/internal/usecase/networth"
	"github.com/simaogato/moneyjar/internal/usecase/savings"
)

// Response views. Decimals are rendered as JSON strings, dates as YYYY-MM-DD.

type accountView struct {
	ID               uuid.UUID       `json:"id"`
	Type             string          `json:"type"`
	Name             string          `json:"name"`
	Balance          decimal.Decimal `json:"balance"`
	Currency         string          `json:"currency"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	IncludeInTotal   bool            `json:"include_in_total"`
	FormattedBalance string          `json:"formatted_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}

func newAccountView(a *domain.Account) accountView {
	return accountView{
		ID:               a.ID,
		Type:             a.Type,
		Name:             a.Name,
		Balance:          a.Balance,
		Currency:         a.Currency,
		ExchangeRate:     a.ExchangeRate,
		IncludeInTotal:   a.IncludeInTotal,
		FormattedBalance: domain.FormatAmount(a.Balance, a.Currency),
		CreatedAt:        a.CreatedAt,
	}
}

type investmentLinkView struct {
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	Ticker        string          `json:"ticker"`
	Principal     decimal.Decimal `json:"principal"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
}

type entryView struct {
	ID             uuid.UUID           `json:"id"`
	Type           domain.EntryType    `json:"type"`
	Amount         decimal.Decimal     `json:"amount"`
	Category       string              `json:"category"`
	AccountID      *uuid.UUID          `json:"account_id"`
	Date           string              `json:"date"`
	Note           string              `json:"note"`
	Kind           domain.EntryKind    `json:"kind"`
	Investment     *investmentLinkView `json:"investment,omitempty"`
	TransferPeerID *uuid.UUID          `json:"transfer_peer_id,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func newEntryView(e *domain.LedgerEntry) *entryView {
	if e == nil {
		return nil
	}
	v := &entryView{
		ID:             e.ID,
		Type:           e.Type,
		Amount:         e.Amount,
		Category:       e.Category,
		AccountID:      e.AccountID,
		Date:           domain.FormatDate(e.Date),
		Note:           e.Note,
		Kind:           e.Kind,
		TransferPeerID: e.TransferPeerID,
		CreatedAt:      e.CreatedAt,
	}
	if e.Investment != nil {
		v.Investment = &investmentLinkView{
			TransactionID: e.Investment.TransactionID,
			Ticker:        e.Investment.Ticker,
			Principal:     e.Investment.Principal,
			ProfitLoss:    e.Investment.ProfitLoss,
		}
	}
	return v
}

func newEntryViews(entries []*domain.LedgerEntry) []*entryView {
	out := make([]*entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryView(e))
	}
	return out
}

type holdingView struct {
	ID              uuid.UUID       `json:"id"`
	BrokerAccountID uuid.UUID       `json:"broker_account_id"`
	Ticker          string          `json:"ticker"`
	Name            string          `json:"name"`
	Market          string          `json:"market"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	PriceUpdatedAt  *time.Time      `json:"price_updated_at"`
	CostBasis       decimal.Decimal `json:"cost_basis"`
	MarketValue     decimal.Decimal `json:"market_value"`
	Unrealized      decimal.Decimal `json:"unrealized"`
	Percent         decimal.Decimal `json:"percent"`
}

func newHoldingView(h *domain.InvestmentHolding) *holdingView {
	if h == nil {
		return nil
	}
	pl := investment.Unrealized(h)
	return &holdingView{
		ID:              h.ID,
		BrokerAccountID: h.BrokerAccountID,
		Ticker:          h.Ticker,
		Name:            h.Name,
		Market:          h.Market,
		Quantity:        h.Quantity,
		AverageCost:     h.AverageCost,
		CurrentPrice:    h.CurrentPrice,
		PriceUpdatedAt:  h.PriceUpdatedAt,
		CostBasis:       pl.CostBasis,
		MarketValue:     pl.MarketValue,
		Unrealized:      pl.Unrealized,
		Percent:         pl.Percent,
	}
}

type portfolioView struct {
	Holdings        []*holdingView  `json:"holdings"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalUnrealized decimal.Decimal `json:"total_unrealized"`
	Percent         decimal.Decimal `json:"percent"`
}

func newPortfolioView(p *investment.Portfolio) portfolioView {
	v := portfolioView{
		Holdings:        make([]*holdingView, 0, len(p.Holdings)),
		TotalCost:       p.TotalCost,
		TotalValue:      p.TotalValue,
		TotalUnrealized: p.TotalUnrealized,
		Percent:         p.Percent,
	}
	for _, h := range p.Holdings {
		v.Holdings = append(v.Holdings, newHoldingView(h.Holding))
	}
	return v
}

type transactionView struct {
	ID               uuid.UUID        `json:"id"`
	HoldingID        uuid.UUID        `json:"holding_id"`
	BrokerAccountID  uuid.UUID        `json:"broker_account_id"`
	PaymentAccountID uuid.UUID        `json:"payment_account_id"`
	Ticker           string           `json:"ticker"`
	Name             string           `json:"name"`
	Market           string           `json:"market"`
	Type             domain.TradeType `json:"type"`
	Quantity         decimal.Decimal  `json:"quantity"`
	PricePerShare    decimal.Decimal  `json:"price_per_share"`
	Fees             decimal.Decimal  `json:"fees"`
	Date             string           `json:"date"`
	LedgerEntryID    *uuid.UUID       `json:"ledger_entry_id"`
}

func newTransactionView(t *domain.InvestmentTransaction) transactionView {
	return transactionView{
		ID:               t.ID,
		HoldingID:        t.HoldingID,
		BrokerAccountID:  t.BrokerAccountID,
		PaymentAccountID: t.PaymentAccountID,
		Ticker:           t.Ticker,
		Name:             t.Name,
		Market:           t.Market,
		Type:             t.Type,
		Quantity:         t.Quantity,
		PricePerShare:    t.PricePerShare,
		Fees:             t.Fees,
		Date:             domain.FormatDate(t.Date),
		LedgerEntryID:    t.LedgerEntryID,
	}
}

type budgetCategoryView struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Type            domain.CategoryPool `json:"type"`
	Percentage      decimal.Decimal     `json:"percentage"`
	ExtraPercentage decimal.Decimal     `json:"extra_percentage"`
	Color           string              `json:"color"`
	Icon            string              `json:"icon"`
	Fixed           decimal.Decimal     `json:"fixed_amount"`
	Extra           decimal.Decimal     `json:"extra_amount"`
	Total           decimal.Decimal     `json:"total_amount"`
}

func newBudgetCategoryView(c *domain.BudgetCategory) budgetCategoryView {
	return budgetCategoryView{
		ID:              c.ID,
		Name:            c.Name,
		Type:            c.Type,
		Percentage:      c.Percentage,
		ExtraPercentage: c.ExtraPercentage,
		Color:           c.Color,
		Icon:            c.Icon,
	}
}

type budgetItemView struct {
	ID               uuid.UUID             `json:"id"`
	Type             domain.BudgetItemType `json:"type"`
	Name             string                `json:"name"`
	Amount           decimal.Decimal       `json:"amount"`
	IsAutoCalculated bool                  `json:"is_auto_calculated"`
}

func newBudgetItemView(it *domain.BudgetItem) budgetItemView {
	return budgetItemView{
		ID:               it.ID,
		Type:             it.Type,
		Name:             it.Name,
		Amount:           it.Amount,
		IsAutoCalculated: it.IsAutoCalculated,
	}
}

type budgetView struct {
	ID               uuid.UUID            `json:"id"`
	Month            string               `json:"month"`
	FixedIncome      decimal.Decimal      `json:"fixed_income"`
	FixedExpense     decimal.Decimal      `json:"fixed_expense"`
	FixedDisposable  decimal.Decimal      `json:"fixed_disposable"`
	ExtraIncome      decimal.Decimal      `json:"extra_income"`
	FixedPercent     decimal.Decimal      `json:"fixed_percent"`
	ExtraPercent     decimal.Decimal      `json:"extra_percent"`
	FixedUnallocated decimal.Decimal      `json:"fixed_unallocated"`
	ExtraUnallocated decimal.Decimal      `json:"extra_unallocated"`
	Total            decimal.Decimal      `json:"total"`
	Categories       []budgetCategoryView `json:"categories"`
	Items            []budgetItemView     `json:"items"`
}

func newBudgetView(ev *budget.Evaluation) budgetView {
	a := ev.Allocation
	v := budgetView{
		ID:               ev.Budget.ID,
		Month:            ev.Budget.Month.String(),
		FixedIncome:      a.FixedIncome,
		FixedExpense:     a.FixedExpense,
		FixedDisposable:  a.FixedDisposable,
		ExtraIncome:      a.ExtraIncome,
		FixedPercent:     a.FixedPercent,
		ExtraPercent:     a.ExtraPercent,
		FixedUnallocated: a.FixedUnallocated(),
		ExtraUnallocated: a.ExtraUnallocated(),
		Total:            a.Total(),
		Categories:       make([]budgetCategoryView, 0, len(a.Categories)),
		Items:            make([]budgetItemView, 0, len(ev.Items)),
	}
	for _, ca := range a.Categories {
		cv := newBudgetCategoryView(ca.Category)
		cv.Fixed, cv.Extra, cv.Total = ca.Fixed, ca.Extra, ca.Total
		v.Categories = append(v.Categories, cv)
	}
	for _, it := range ev.Items {
		v.Items = append(v.Items, newBudgetItemView(it))
	}
	return v
}

type jarCategoryView struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon"`
}

func newJarCategoryView(c *domain.SavingsJarCategory) jarCategoryView {
	return jarCategoryView{ID: c.ID, Name: c.Name, Percentage: c.Percentage, Color: c.Color, Icon: c.Icon}
}

type jarView struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	TargetAmount        decimal.Decimal   `json:"target_amount"`
	CurrentAmount       decimal.Decimal   `json:"current_amount"`
	IncludeInDisposable bool              `json:"include_in_disposable"`
	Progress            decimal.Decimal   `json:"progress"`
	Categories          []jarCategoryView `json:"categories"`
}

func newJarView(j *domain.SavingsJar, categories []*domain.SavingsJarCategory) jarView {
	v := jarView{
		ID:                  j.ID,
		Name:                j.Name,
		TargetAmount:        j.TargetAmount,
		CurrentAmount:       j.CurrentAmount,
		IncludeInDisposable: j.IncludeInDisposable,
		Progress:            j.Progress(),
		Categories:          make([]jarCategoryView, 0, len(categories)),
	}
	for _, c := range categories {
		v.Categories = append(v.Categories, newJarCategoryView(c))
	}
	return v
}

func newJarViews(views []*savings.JarView) []jarView {
	out := make([]jarView, 0, len(views))
	for _, jv := range views {
		out = append(out, newJarView(jv.Jar, jv.Categories))
	}
	return out
}

type depositView struct {
	ID              uuid.UUID       `json:"id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"`
	Note            string          `json:"note"`
	LedgerEntryID   *uuid.UUID      `json:"ledger_entry_id"`
}

func newDepositView(d *domain.SavingsJarDeposit) depositView {
	return depositView{
		ID:              d.ID,
		SourceAccountID: d.SourceAccountID,
		Amount:          d.Amount,
		Date:            domain.FormatDate(d.Date),
		Note:            d.Note,
		LedgerEntryID:   d.LedgerEntryID,
	}
}

type summaryRowView struct {
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Icon      string          `json:"icon"`
	Budget    decimal.Decimal `json:"budget"`
	Jar       decimal.Decimal `json:"jar"`
	JarOnly   bool            `json:"jar_only"`
	Allocated decimal.Decimal `json:"allocated"`
	Used      decimal.Decimal `json:"used"`
	Overage   decimal.Decimal `json:"overage"`
	Remaining decimal.Decimal `json:"remaining"`
}

type summaryView struct {
	Month           string                     `json:"month"`
	Rows            []summaryRowView           `json:"rows"`
	TotalDisposable decimal.Decimal            `json:"total_disposable"`
	Income          decimal.Decimal            `json:"income"`
	Expense         decimal.Decimal            `json:"expense"`
	Remaining       decimal.Decimal            `json:"remaining"`
	Unbudgeted      map[string]decimal.Decimal `json:"unbudgeted"`
}

func newSummaryView(s *disposable.Summary) summaryView {
	v := summaryView{
		Month:           s.Month.String(),
		Rows:            make([]summaryRowView, 0, len(s.Rows)),
		TotalDisposable: s.TotalDisposable,
		Income:          s.Income,
		Expense:         s.Expense,
		Remaining:       s.Remaining,
		Unbudgeted:      s.Unbudgeted,
	}
	for _, r := range s.Rows {
		v.Rows = append(v.Rows, summaryRowView{
			Name:      r.Name,
			Color:     r.Color,
			Icon:      r.Icon,
			Budget:    r.Budget,
			Jar:       r.Jar,
			JarOnly:   r.JarOnly,
			Allocated: r.Allocated(),
			Used:      r.Used,
			Overage:   r.Overage,
			Remaining: r.Remaining,
		})
	}
	return v
}

type typeTotalView struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type netWorthAccountView struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Rate      decimal.Decimal `json:"rate"`
	Converted decimal.Decimal `json:"converted"`
}

type netWorthView struct {
	Currency    string                `json:"currency"`
	NetWorth    decimal.Decimal       `json:"net_worth"`
	Formatted   string                `json:"formatted"`
	Assets      decimal.Decimal       `json:"assets"`
	Liabilities decimal.Decimal       `json:"liabilities"`
	Breakdown   []typeTotalView       `json:"breakdown"`
	Accounts    []netWorthAccountView `json:"accounts"`
}

func newNetWorthView(s *networth.Summary) netWorthView {
	v := netWorthView{
		Currency:    s.Currency,
		NetWorth:    s.NetWorth,
		Formatted:   domain.FormatAmount(s.NetWorth, s.Currency),
		Assets:      s.Assets,
		Liabilities: s.Liabilities,
		Breakdown:   make([]typeTotalView, 0, len(s.Breakdown)),
		Accounts:    make([]netWorthAccountView, 0, len(s.Accounts)),
	}
	for _, b := range s.Breakdown {
		v.Breakdown = append(v.Breakdown, typeTotalView{Type: b.Type, Amount: b.Amount})
	}
	for _, a := range s.Accounts {
		v.Accounts = append(v.Accounts, netWorthAccountView{
			ID:        a.Account.ID,
			Name:      a.Account.Name,
			Type:      a.Account.Type,
			Currency:  a.Account.Currency,
			Balance:   a.Account.Balance,
			Rate:      a.Rate,
			Converted: a.Converted,
		})
	}
	return v
}

type pointView struct {
	Date     string          `json:"date"`
	NetWorth decimal.Decimal `json:"net_worth"`
}

func newPointViews(points []networth.Point) []pointView {
	out := make([]pointView, 0, len(points))
	for _, p := range points {
		out = append(out, pointView{Date: domain.FormatDate(p.Date), NetWorth: p.NetWorth})
	}
	return out
}

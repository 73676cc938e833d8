package investment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
	"golang.org/x/sync/errgroup"
)

// RecordTransactionInput represents the input for a buy or sell
type RecordTransactionInput struct {
	UserID           string
	BrokerAccountID  uuid.UUID
	PaymentAccountID uuid.UUID
	Ticker           string
	Name             string
	Market           string
	Type             domain.TradeType
	Quantity         decimal.Decimal
	PricePerShare    decimal.Decimal
	Fees             decimal.Decimal
	Date             time.Time // zero means today
}

// RecordTransactionResult holds everything a trade touched
type RecordTransactionResult struct {
	Transaction *domain.InvestmentTransaction
	Holding     *domain.InvestmentHolding // nil when the trade closed the position
	Entry       *domain.LedgerEntry       // nil when the trade had no cash effect
}

// PositionChangeInput represents a mark-to-market revaluation of a position
type PositionChangeInput struct {
	UserID      string
	AccountID   uuid.UUID
	Ticker      string
	CostBasis   decimal.Decimal
	MarketValue decimal.Decimal
	Date        time.Time
	Note        string
}

// HoldingView is a holding with its unrealized result
type HoldingView struct {
	Holding    *domain.InvestmentHolding
	ProfitLoss ProfitLoss
}

// Portfolio summarizes every holding of a user
type Portfolio struct {
	Holdings        []HoldingView
	TotalCost       decimal.Decimal
	TotalValue      decimal.Decimal
	TotalUnrealized decimal.Decimal
	Percent         decimal.Decimal
}

// InvestmentService handles trades and keeps holdings consistent with their transactions
type InvestmentService struct {
	Store  domain.Store
	Prices domain.PriceOracle
	Log    zerolog.Logger
	Now    func() time.Time

	// PriceConcurrency bounds concurrent oracle lookups in RefreshPrices
	PriceConcurrency int
}

// NewInvestmentService creates a new InvestmentService instance
func NewInvestmentService(store domain.Store, prices domain.PriceOracle, log zerolog.Logger) *InvestmentService {
	return &InvestmentService{
		Store:            store,
		Prices:           prices,
		Log:              log,
		Now:              time.Now,
		PriceConcurrency: 4,
	}
}

// RecordTransaction books a buy or sell.
// Logic:
//  1. Validate the trade and both accounts
//  2. Replay the position with the new transaction included
//  3. Create the cash-side ledger entry on the payment account (principal plus realized P/L link)
//  4. Persist the transaction and refresh the realized P/L of later trades
//  5. Save the holding, or delete it when the position closed
func (s *InvestmentService) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*RecordTransactionResult, error) {
	now := s.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	tx := &domain.InvestmentTransaction{
		ID:               uuid.New(),
		UserID:           input.UserID,
		BrokerAccountID:  input.BrokerAccountID,
		PaymentAccountID: input.PaymentAccountID,
		Ticker:           input.Ticker,
		Name:             input.Name,
		Market:           input.Market,
		Type:             input.Type,
		Quantity:         input.Quantity,
		PricePerShare:    input.PricePerShare,
		Fees:             input.Fees,
		Date:             domain.DateOf(date),
		CreatedAt:        now,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if tx.Name == "" {
		tx.Name = tx.Ticker
	}

	result := &RecordTransactionResult{Transaction: tx}
	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Accounts.GetByID(ctx, tx.UserID, tx.PaymentAccountID); err != nil {
			return err
		}
		if tx.BrokerAccountID != tx.PaymentAccountID {
			if _, err := repos.Accounts.GetByID(ctx, tx.UserID, tx.BrokerAccountID); err != nil {
				return err
			}
		}

		holding, err := s.loadOrNewHolding(ctx, repos, tx)
		if err != nil {
			return err
		}
		tx.HoldingID = holding.ID

		history, err := repos.Transactions.ListByPosition(ctx, tx.UserID, tx.BrokerAccountID, tx.Ticker)
		if err != nil {
			return err
		}
		history = append(history, tx)

		replay, err := replayPosition(history)
		if err != nil {
			return err
		}

		entry := tradeEntry(tx, replay.realized[tx.ID], now)
		if entry != nil {
			if err := ledger.Record(ctx, repos, entry, s.Log); err != nil {
				return err
			}
			tx.LedgerEntryID = &entry.ID
			result.Entry = entry
		}

		if err := repos.Transactions.Create(ctx, tx); err != nil {
			return err
		}
		// a backdated trade shifts the average cost seen by every later sell
		if err := s.relink(ctx, repos, tx.UserID, history, replay.realized); err != nil {
			return err
		}

		if replay.position.IsClosed() {
			return s.closeHolding(ctx, repos, holding)
		}
		holding.Quantity = replay.position.Quantity
		holding.AverageCost = replay.position.AverageCost
		if err := repos.Holdings.Save(ctx, holding); err != nil {
			return err
		}
		result.Holding = holding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTransaction removes a trade and re-derives its holding from the remaining history.
// Logic:
//  1. Reverse and delete the trade's ledger entry
//  2. Delete the transaction
//  3. Replay every remaining transaction of the position from scratch
//  4. Delete the holding when nothing remains, otherwise save (or recreate) it
func (s *InvestmentService) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	return s.Store.InTx(ctx, func(repos domain.Repositories) error {
		tx, err := repos.Transactions.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}

		if tx.LedgerEntryID != nil {
			entry, err := repos.Ledger.GetByID(ctx, userID, *tx.LedgerEntryID)
			switch {
			case err == nil:
				if err := ledger.Unrecord(ctx, repos, entry, s.Log); err != nil {
					return err
				}
			case domain.IsNotFound(err):
				s.Log.Debug().Str("transaction_id", id.String()).Msg("trade ledger entry already gone")
			default:
				return err
			}
		}

		if err := repos.Transactions.Delete(ctx, userID, id); err != nil {
			return err
		}
		return s.rederive(ctx, repos, userID, tx.BrokerAccountID, tx.Ticker)
	})
}

// ListTransactions returns a position's transactions in chronological order
func (s *InvestmentService) ListTransactions(ctx context.Context, userID string, brokerAccountID uuid.UUID, ticker string) ([]*domain.InvestmentTransaction, error) {
	txs, err := s.Store.Repos().Transactions.ListByPosition(ctx, userID, brokerAccountID, ticker)
	if err != nil {
		return nil, err
	}
	SortChronological(txs)
	return txs, nil
}

// RecordPositionChange books a mark-to-market revaluation against an account.
// Only the profit or loss moves the balance and counts as cash flow.
// Returns nil and no entry when market value equals cost basis.
func (s *InvestmentService) RecordPositionChange(ctx context.Context, input PositionChangeInput) (*domain.LedgerEntry, error) {
	if input.CostBasis.IsNegative() || input.MarketValue.IsNegative() {
		return nil, domain.Invalid("amount", "cost basis and market value cannot be negative")
	}
	pl := input.MarketValue.Sub(input.CostBasis)
	if pl.IsZero() {
		return nil, nil
	}

	date := input.Date
	if date.IsZero() {
		date = s.Now()
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Type:      domain.EntryTypeIncome,
		Amount:    pl.Abs(),
		Category:  domain.CategoryPositionIncrease,
		AccountID: &input.AccountID,
		Date:      domain.DateOf(date),
		Note:      input.Note,
		Kind:      domain.EntryKindPosition,
		Investment: &domain.InvestmentLink{
			Ticker:     input.Ticker,
			Principal:  input.CostBasis,
			ProfitLoss: pl,
		},
		CreatedAt: s.Now(),
	}
	if pl.IsNegative() {
		entry.Type = domain.EntryTypeExpense
		entry.Category = domain.CategoryPositionDecrease
	}

	err := s.Store.InTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Accounts.GetByID(ctx, input.UserID, input.AccountID); err != nil {
			return err
		}
		return ledger.Record(ctx, repos, entry, s.Log)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RefreshPrices asks the price oracle for every holding of the user.
// A holding whose price is unavailable keeps its previous price.
// Returns the number of holdings updated.
func (s *InvestmentService) RefreshPrices(ctx context.Context, userID string) (int, error) {
	holdings, err := s.openHoldings(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.Prices == nil || len(holdings) == 0 {
		return 0, nil
	}

	prices := make([]*decimal.Decimal, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	if s.PriceConcurrency > 0 {
		g.SetLimit(s.PriceConcurrency)
	}
	for i, h := range holdings {
		g.Go(func() error {
			price, err := s.Prices.Price(gctx, h.Ticker, h.Market)
			if err != nil {
				s.Log.Warn().Err(err).Str("ticker", h.Ticker).Msg("price unavailable, keeping previous price")
				return nil
			}
			prices[i] = &price
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.Now()
	updated := 0
	err = s.Store.InTx(ctx, func(repos domain.Repositories) error {
		for i, h := range holdings {
			if prices[i] == nil {
				continue
			}
			h.CurrentPrice = *prices[i]
			h.PriceUpdatedAt = &now
			if err := repos.Holdings.Save(ctx, h); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// Portfolio returns every holding with its unrealized result and the totals
func (s *InvestmentService) Portfolio(ctx context.Context, userID string) (*Portfolio, error) {
	holdings, err := s.openHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{Holdings: make([]HoldingView, 0, len(holdings))}
	for _, h := range holdings {
		pl := Unrealized(h)
		p.Holdings = append(p.Holdings, HoldingView{Holding: h, ProfitLoss: pl})
		p.TotalCost = p.TotalCost.Add(pl.CostBasis)
		p.TotalValue = p.TotalValue.Add(pl.MarketValue)
		p.TotalUnrealized = p.TotalUnrealized.Add(pl.Unrealized)
	}
	if !p.TotalCost.IsZero() {
		p.Percent = p.TotalUnrealized.Div(p.TotalCost).Mul(hundred)
	}
	return p, nil
}

// openHoldings lists the user's holdings and removes those whose quantity is zero
func (s *InvestmentService) openHoldings(ctx context.Context, userID string) ([]*domain.InvestmentHolding, error) {
	holdings, err := s.Store.Repos().Holdings.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	open := make([]*domain.InvestmentHolding, 0, len(holdings))
	var closed []*domain.InvestmentHolding
	for _, h := range holdings {
		if (Position{Quantity: h.Quantity}).IsClosed() {
			closed = append(closed, h)
			continue
		}
		open = append(open, h)
	}
	if len(closed) == 0 {
		return open, nil
	}

	err = s.Store.InTx(ctx, func(repos domain.Repositories) error {
		for _, h := range closed {
			if err := s.closeHolding(ctx, repos, h); err != nil {
				return err
			}
			s.Log.Info().Str("ticker", h.Ticker).Str("holding_id", h.ID.String()).Msg("removed zero-quantity holding")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return open, nil
}

func (s *InvestmentService) loadOrNewHolding(ctx context.Context, repos domain.Repositories, tx *domain.InvestmentTransaction) (*domain.InvestmentHolding, error) {
	holding, err := repos.Holdings.GetByPosition(ctx, tx.UserID, tx.BrokerAccountID, tx.Ticker)
	if err == nil {
		return holding, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}
	return &domain.InvestmentHolding{
		ID:              uuid.New(),
		UserID:          tx.UserID,
		BrokerAccountID: tx.BrokerAccountID,
		Ticker:          tx.Ticker,
		Name:            tx.Name,
		Market:          tx.Market,
		CurrentPrice:    tx.PricePerShare,
	}, nil
}

func (s *InvestmentService) closeHolding(ctx context.Context, repos domain.Repositories, holding *domain.InvestmentHolding) error {
	err := repos.Holdings.Delete(ctx, holding.UserID, holding.ID)
	if err != nil && !domain.IsNotFound(err) {
		return err
	}
	s.Log.Debug().Str("ticker", holding.Ticker).Msg("position closed, holding removed")
	return nil
}

// rederive replays a position after its history changed. Realized P/L links of the
// remaining trades are refreshed because they depend on the average cost before them.
func (s *InvestmentService) rederive(ctx context.Context, repos domain.Repositories, userID string, brokerAccountID uuid.UUID, ticker string) error {
	remaining, err := repos.Transactions.ListByPosition(ctx, userID, brokerAccountID, ticker)
	if err != nil {
		return err
	}

	existing, err := repos.Holdings.GetByPosition(ctx, userID, brokerAccountID, ticker)
	if err != nil && !domain.IsNotFound(err) {
		return err
	}

	replay, err := replayPosition(remaining)
	if err != nil {
		return err
	}
	if err := s.relink(ctx, repos, userID, remaining, replay.realized); err != nil {
		return err
	}

	if len(remaining) == 0 || replay.position.IsClosed() {
		if existing == nil {
			return nil
		}
		return s.closeHolding(ctx, repos, existing)
	}

	holding := existing
	if holding == nil {
		latest := remaining[len(remaining)-1]
		holding = &domain.InvestmentHolding{
			ID:              uuid.New(),
			UserID:          userID,
			BrokerAccountID: brokerAccountID,
			Ticker:          ticker,
			Name:            latest.Name,
			Market:          latest.Market,
			CurrentPrice:    latest.PricePerShare,
		}
		s.Log.Info().Str("ticker", ticker).Msg("recreating holding from remaining transactions")
	}
	holding.Quantity = replay.position.Quantity
	holding.AverageCost = replay.position.AverageCost
	if err := repos.Holdings.Save(ctx, holding); err != nil {
		return err
	}

	for _, tx := range remaining {
		if tx.HoldingID == holding.ID {
			continue
		}
		tx.HoldingID = holding.ID
		if err := repos.Transactions.Update(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (s *InvestmentService) relink(ctx context.Context, repos domain.Repositories, userID string, txs []*domain.InvestmentTransaction, realized map[uuid.UUID]decimal.Decimal) error {
	for _, tx := range txs {
		if tx.LedgerEntryID == nil {
			continue
		}
		entry, err := repos.Ledger.GetByID(ctx, userID, *tx.LedgerEntryID)
		if domain.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if entry.Investment == nil || entry.Investment.ProfitLoss.Equal(realized[tx.ID]) {
			continue
		}
		entry.Investment.ProfitLoss = realized[tx.ID]
		if err := repos.Ledger.Update(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

type replayResult struct {
	position Position
	realized map[uuid.UUID]decimal.Decimal
}

// replayPosition is Replay that also records each transaction's realized result
func replayPosition(txs []*domain.InvestmentTransaction) (replayResult, error) {
	ordered := make([]*domain.InvestmentTransaction, len(txs))
	copy(ordered, txs)
	SortChronological(ordered)

	res := replayResult{realized: make(map[uuid.UUID]decimal.Decimal, len(ordered))}
	for _, tx := range ordered {
		res.realized[tx.ID] = Realized(res.position, tx)
		next, err := Apply(res.position, tx)
		if err != nil {
			return res, err
		}
		res.position = next
	}
	return res, nil
}

// tradeEntry builds the cash-side ledger entry of tx
func tradeEntry(tx *domain.InvestmentTransaction, realized decimal.Decimal, now time.Time) *domain.LedgerEntry {
	cash := tx.CashEffect()
	if cash.IsZero() {
		return nil
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New(),
		UserID:    tx.UserID,
		Type:      domain.EntryTypeIncome,
		Amount:    cash.Abs(),
		Category:  domain.CategoryStockSell,
		AccountID: &tx.PaymentAccountID,
		Date:      tx.Date,
		Note:      fmt.Sprintf("賣出 %s (%s) %s股 @ $%s", tx.Name, tx.Ticker, tx.Quantity, tx.PricePerShare),
		Kind:      domain.EntryKindTrade,
		Investment: &domain.InvestmentLink{
			TransactionID: &tx.ID,
			Ticker:        tx.Ticker,
			Principal:     tx.Principal(),
			ProfitLoss:    realized,
		},
		CreatedAt: now,
	}
	if tx.Type == domain.TradeTypeBuy {
		entry.Category = domain.CategoryStockBuy
		entry.Note = fmt.Sprintf("買入 %s (%s) %s股 @ $%s", tx.Name, tx.Ticker, tx.Quantity, tx.PricePerShare)
	}
	if cash.IsNegative() {
		entry.Type = domain.EntryTypeExpense
	}
	return entry
}

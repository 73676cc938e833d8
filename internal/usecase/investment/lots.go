package investment

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
)

// Tolerance is the quantity below which a position counts as closed
var Tolerance = decimal.New(1, -8)

var hundred = decimal.NewFromInt(100)

// Position is the average-cost state of one (broker account, ticker)
type Position struct {
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// IsClosed reports whether the quantity is zero within Tolerance
func (p Position) IsClosed() bool {
	return p.Quantity.Abs().LessThan(Tolerance)
}

// Apply returns the position after tx.
// A buy blends into the average cost, fees excluded. A sell reduces the quantity and
// leaves the average cost unchanged. Selling more than is held is rejected.
func Apply(pos Position, tx *domain.InvestmentTransaction) (Position, error) {
	switch tx.Type {
	case domain.TradeTypeBuy:
		newQty := pos.Quantity.Add(tx.Quantity)
		cost := pos.Quantity.Mul(pos.AverageCost).Add(tx.Principal())
		return Position{Quantity: newQty, AverageCost: cost.Div(newQty)}, nil

	case domain.TradeTypeSell:
		remaining := pos.Quantity.Sub(tx.Quantity)
		if remaining.LessThan(Tolerance.Neg()) {
			return pos, domain.Invalid("quantity", fmt.Sprintf("cannot sell %s %s, only %s held", tx.Quantity, tx.Ticker, pos.Quantity))
		}
		if remaining.Abs().LessThan(Tolerance) {
			return Position{Quantity: decimal.Zero, AverageCost: decimal.Zero}, nil
		}
		return Position{Quantity: remaining, AverageCost: pos.AverageCost}, nil

	default:
		return pos, domain.Invalid("type", "transaction type must be buy or sell")
	}
}

// SortChronological orders transactions by date, then creation time, then id
func SortChronological(txs []*domain.InvestmentTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// Replay derives a position from scratch by applying txs in chronological order.
// The input slice is not reordered.
func Replay(txs []*domain.InvestmentTransaction) (Position, error) {
	ordered := make([]*domain.InvestmentTransaction, len(txs))
	copy(ordered, txs)
	SortChronological(ordered)

	var pos Position
	for _, tx := range ordered {
		next, err := Apply(pos, tx)
		if err != nil {
			return pos, err
		}
		pos = next
	}
	return pos, nil
}

// ProfitLoss holds the unrealized result of a holding at its current price
type ProfitLoss struct {
	CostBasis   decimal.Decimal
	MarketValue decimal.Decimal
	Unrealized  decimal.Decimal
	Percent     decimal.Decimal // 0 when the cost basis is 0
}

// Unrealized computes quantity × (price − average cost) and its percentage of cost basis
func Unrealized(h *domain.InvestmentHolding) ProfitLoss {
	basis := h.CostBasis()
	pl := ProfitLoss{
		CostBasis:   basis,
		MarketValue: h.MarketValue(),
		Unrealized:  h.Quantity.Mul(h.CurrentPrice.Sub(h.AverageCost)),
		Percent:     decimal.Zero,
	}
	if !basis.IsZero() {
		pl.Percent = pl.Unrealized.Div(basis).Mul(hundred)
	}
	return pl
}

// Realized returns the profit or loss booked by tx against pos:
// q×(p − avg) − f for a sell, −f for a buy
func Realized(pos Position, tx *domain.InvestmentTransaction) decimal.Decimal {
	if tx.Type == domain.TradeTypeSell {
		return tx.Quantity.Mul(tx.PricePerShare.Sub(pos.AverageCost)).Sub(tx.Fees)
	}
	return tx.Fees.Neg()
}

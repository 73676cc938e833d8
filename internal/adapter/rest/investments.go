package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/investment"
)

// GetPortfolio handles GET /api/investments and marks the user active for price polling
func (h *Handler) GetPortfolio(c *gin.Context) {
	userID := currentUser(c)
	if h.Activity != nil {
		h.Activity.Touch(userID)
	}
	p, err := h.Investments.Portfolio(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newPortfolioView(p))
}

// RefreshPrices handles POST /api/investments/refresh
func (h *Handler) RefreshPrices(c *gin.Context) {
	n, err := h.Investments.RefreshPrices(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"updated": n})
}

// ListTransactions handles GET /api/investments/transactions?broker_account_id=&ticker=
func (h *Handler) ListTransactions(c *gin.Context) {
	brokerID, err := uuid.Parse(c.Query("broker_account_id"))
	if err != nil {
		badRequest(c, "broker_account_id is required")
		return
	}
	ticker := strings.TrimSpace(c.Query("ticker"))
	if ticker == "" {
		badRequest(c, "ticker is required")
		return
	}
	txs, err := h.Investments.ListTransactions(c.Request.Context(), currentUser(c), brokerID, ticker)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t))
	}
	success(c, http.StatusOK, out)
}

type tradeReq struct {
	BrokerAccountID  uuid.UUID        `json:"broker_account_id" binding:"required"`
	PaymentAccountID uuid.UUID        `json:"payment_account_id" binding:"required"`
	Ticker           string           `json:"ticker" binding:"required"`
	Name             string           `json:"name"`
	Market           string           `json:"market"`
	Type             domain.TradeType `json:"type" binding:"required,oneof=buy sell"`
	Quantity         decimal.Decimal  `json:"quantity"`
	PricePerShare    decimal.Decimal  `json:"price_per_share"`
	Fees             decimal.Decimal  `json:"fees"`
	Date             string           `json:"date"`
}

// RecordTransaction handles POST /api/investments/transactions
func (h *Handler) RecordTransaction(c *gin.Context) {
	var req tradeReq
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.Investments.RecordTransaction(c.Request.Context(), investment.RecordTransactionInput{
		UserID:           currentUser(c),
		BrokerAccountID:  req.BrokerAccountID,
		PaymentAccountID: req.PaymentAccountID,
		Ticker:           req.Ticker,
		Name:             req.Name,
		Market:           req.Market,
		Type:             req.Type,
		Quantity:         req.Quantity,
		PricePerShare:    req.PricePerShare,
		Fees:             req.Fees,
		Date:             date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{
		"transaction": newTransactionView(res.Transaction),
		"holding":     newHoldingView(res.Holding),
		"entry":       newEntryView(res.Entry),
	})
}

// DeleteTransaction handles DELETE /api/investments/transactions/:id
func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Investments.DeleteTransaction(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type positionChangeReq struct {
	AccountID   uuid.UUID       `json:"account_id" binding:"required"`
	Ticker      string          `json:"ticker"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	MarketValue decimal.Decimal `json:"market_value"`
	Date        string          `json:"date"`
	Note        string          `json:"note"`
}

// RecordPositionChange handles POST /api/investments/position-changes.
// It responds 204 when market value equals cost basis.
func (h *Handler) RecordPositionChange(c *gin.Context) {
	var req positionChangeReq
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.Investments.RecordPositionChange(c.Request.Context(), investment.PositionChangeInput{
		UserID:      currentUser(c),
		AccountID:   req.AccountID,
		Ticker:      req.Ticker,
		CostBasis:   req.CostBasis,
		MarketValue: req.MarketValue,
		Date:        date,
		Note:        req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if entry == nil {
		c.Status(http.StatusNoContent)
		return
	}
	success(c, http.StatusCreated, newEntryView(entry))
}

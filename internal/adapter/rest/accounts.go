package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/account"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
)

type accountReq struct {
	Type           string          `json:"type"`
	Name           string          `json:"name" binding:"required"`
	Currency       string          `json:"currency"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	Balance        decimal.Decimal `json:"balance"` // opening balance, ignored on update
	IncludeInTotal *bool           `json:"include_in_total"`
}

func (r accountReq) includeInTotal() bool {
	return r.IncludeInTotal == nil || *r.IncludeInTotal
}

// ListAccounts handles GET /api/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.Accounts.ListAccounts(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountView(a))
	}
	success(c, http.StatusOK, out)
}

// CreateAccount handles POST /api/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req accountReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.Accounts.CreateAccount(c.Request.Context(), account.CreateAccountInput{
		UserID:         currentUser(c),
		Type:           req.Type,
		Name:           req.Name,
		Currency:       req.Currency,
		ExchangeRate:   req.ExchangeRate,
		OpeningBalance: req.Balance,
		IncludeInTotal: req.includeInTotal(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newAccountView(a))
}

// GetAccount handles GET /api/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	a, err := h.Accounts.GetAccount(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newAccountView(a))
}

// UpdateAccount handles PATCH /api/accounts/:id. The balance cannot be edited here.
func (h *Handler) UpdateAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req accountReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.Accounts.UpdateAccount(c.Request.Context(), id, account.UpdateAccountInput{
		UserID:         currentUser(c),
		Type:           req.Type,
		Name:           req.Name,
		Currency:       req.Currency,
		ExchangeRate:   req.ExchangeRate,
		IncludeInTotal: req.includeInTotal(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newAccountView(a))
}

// DeleteAccount handles DELETE /api/accounts/:id
func (h *Handler) DeleteAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Accounts.DeleteAccount(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type adjustReq struct {
	// Either Target, or Type and Amount
	Target *decimal.Decimal `json:"target_balance"`
	Type   domain.EntryType `json:"type"`
	Amount decimal.Decimal  `json:"amount"`
	Date   string           `json:"date"`
	Note   string           `json:"note"`
}

// AdjustAccount handles POST /api/accounts/:id/adjust.
// It responds 204 when the balance already matches the target.
func (h *Handler) AdjustAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req adjustReq
	if !bindJSON(c, &req) {
		return
	}

	var (
		entry *domain.LedgerEntry
		err   error
	)
	if req.Target != nil {
		entry, err = h.Ledger.SetBalance(c.Request.Context(), currentUser(c), id, *req.Target, req.Note)
	} else {
		date, derr := parseDate(req.Date)
		if derr != nil {
			respondError(c, derr)
			return
		}
		entry, err = h.Ledger.AdjustBalance(c.Request.Context(), ledger.AdjustBalanceInput{
			UserID:    currentUser(c),
			AccountID: id,
			Type:      req.Type,
			Amount:    req.Amount,
			Date:      date,
			Note:      req.Note,
		})
	}
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

package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
)

type entryReq struct {
	Type      domain.EntryType `json:"type" binding:"required,oneof=income expense"`
	Amount    decimal.Decimal  `json:"amount"`
	Category  string           `json:"category" binding:"required,max=64"`
	AccountID string           `json:"account_id"`
	Date      string           `json:"date"`
	Note      string           `json:"note" binding:"max=255"`
}

func (r entryReq) input(userID string) (ledger.EntryInput, error) {
	accountID, err := parseOptionalUUID("account_id", r.AccountID)
	if err != nil {
		return ledger.EntryInput{}, err
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.EntryInput{}, err
	}
	return ledger.EntryInput{
		UserID:    userID,
		Type:      r.Type,
		Amount:    r.Amount,
		Category:  r.Category,
		AccountID: accountID,
		Date:      date,
		Note:      r.Note,
	}, nil
}

// ListEntries handles GET /api/ledger?month=YYYY-MM|from=&to=&account_id=
func (h *Handler) ListEntries(c *gin.Context) {
	var filter domain.LedgerFilter
	if m := c.Query("month"); m != "" {
		month, err := domain.ParseMonth(m)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.From, filter.To = month.Start(), month.End()
	}
	if from := c.Query("from"); from != "" {
		d, err := domain.ParseDate(from)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.From = d
	}
	if to := c.Query("to"); to != "" {
		d, err := domain.ParseDate(to)
		if err != nil {
			respondError(c, err)
			return
		}
		// "to" is inclusive for callers
		filter.To = d.AddDate(0, 0, 1)
	}
	accountID, err := parseOptionalUUID("account_id", c.Query("account_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	filter.AccountID = accountID

	entries, err := h.Ledger.ListEntries(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newEntryViews(entries))
}

// CreateEntry handles POST /api/ledger
func (h *Handler) CreateEntry(c *gin.Context) {
	var req entryReq
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.input(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.Ledger.CreateEntry(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newEntryView(entry))
}

// UpdateEntry handles PATCH /api/ledger/:id. The body replaces every editable field.
func (h *Handler) UpdateEntry(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req entryReq
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.input(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.Ledger.UpdateEntry(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newEntryView(entry))
}

// DeleteEntry handles DELETE /api/ledger/:id
func (h *Handler) DeleteEntry(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Ledger.DeleteEntry(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type transferReq struct {
	FromAccountID uuid.UUID       `json:"from_account_id" binding:"required"`
	ToAccountID   uuid.UUID       `json:"to_account_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Note          string          `json:"note"`
}

// Transfer handles POST /api/transfer
func (h *Handler) Transfer(c *gin.Context) {
	var req transferReq
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.Ledger.Transfer(c.Request.Context(), ledger.TransferInput{
		UserID:        currentUser(c),
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Date:          date,
		Note:          req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{
		"out": newEntryView(res.Out),
		"in":  newEntryView(res.In),
	})
}

package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/savings"
)

type jarReq struct {
	Name                string          `json:"name" binding:"required"`
	TargetAmount        decimal.Decimal `json:"target_amount"`
	IncludeInDisposable bool            `json:"include_in_disposable"`
}

func (r jarReq) input(userID string) savings.JarInput {
	return savings.JarInput{
		UserID:              userID,
		Name:                r.Name,
		TargetAmount:        r.TargetAmount,
		IncludeInDisposable: r.IncludeInDisposable,
	}
}

// ListJars handles GET /api/jars
func (h *Handler) ListJars(c *gin.Context) {
	views, err := h.Savings.ListJars(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newJarViews(views))
}

// CreateJar handles POST /api/jars
func (h *Handler) CreateJar(c *gin.Context) {
	var req jarReq
	if !bindJSON(c, &req) {
		return
	}
	jar, err := h.Savings.CreateJar(c.Request.Context(), req.input(currentUser(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newJarView(jar, nil))
}

// GetJar handles GET /api/jars/:id
func (h *Handler) GetJar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	jv, err := h.Savings.GetJar(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newJarView(jv.Jar, jv.Categories))
}

// UpdateJar handles PATCH /api/jars/:id
func (h *Handler) UpdateJar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req jarReq
	if !bindJSON(c, &req) {
		return
	}
	userID := currentUser(c)
	if _, err := h.Savings.UpdateJar(c.Request.Context(), id, req.input(userID)); err != nil {
		respondError(c, err)
		return
	}
	jv, err := h.Savings.GetJar(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newJarView(jv.Jar, jv.Categories))
}

// DeleteJar handles DELETE /api/jars/:id. Deposited money stays on the source accounts.
func (h *Handler) DeleteJar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Savings.DeleteJar(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type jarCategoryReq struct {
	Name       string          `json:"name" binding:"required"`
	Percentage decimal.Decimal `json:"percentage"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon"`
}

// SaveJarCategory handles POST /api/jars/:id/categories (create) and
// PATCH /api/jars/:id/categories/:categoryID (update)
func (h *Handler) SaveJarCategory(c *gin.Context) {
	jarID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var categoryID *uuid.UUID
	if c.Param("categoryID") != "" {
		id, ok := uuidParam(c, "categoryID")
		if !ok {
			return
		}
		categoryID = &id
	}
	var req jarCategoryReq
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.Savings.SaveCategory(c.Request.Context(), currentUser(c), jarID, categoryID, savings.CategoryInput{
		Name:       req.Name,
		Percentage: req.Percentage,
		Color:      req.Color,
		Icon:       req.Icon,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if categoryID == nil {
		status = http.StatusCreated
	}
	success(c, status, newJarCategoryView(cat))
}

// DeleteJarCategory handles DELETE /api/jars/:id/categories/:categoryID
func (h *Handler) DeleteJarCategory(c *gin.Context) {
	jarID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	id, ok := uuidParam(c, "categoryID")
	if !ok {
		return
	}
	if err := h.Savings.DeleteCategory(c.Request.Context(), currentUser(c), jarID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDeposits handles GET /api/jars/:id/deposits
func (h *Handler) ListDeposits(c *gin.Context) {
	jarID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	deposits, err := h.Savings.ListDeposits(c.Request.Context(), currentUser(c), jarID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]depositView, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, newDepositView(d))
	}
	success(c, http.StatusOK, out)
}

type moveReq struct {
	AccountID uuid.UUID       `json:"account_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Note      string          `json:"note"`
}

// Deposit handles POST /api/jars/:id/deposit
func (h *Handler) Deposit(c *gin.Context) {
	h.move(c, h.Savings.Deposit)
}

// Withdraw handles POST /api/jars/:id/withdraw
func (h *Handler) Withdraw(c *gin.Context) {
	h.move(c, h.Savings.Withdraw)
}

type moveFunc func(ctx context.Context, input savings.MoveInput) (*domain.SavingsJarDeposit, error)

func (h *Handler) move(c *gin.Context, fn moveFunc) {
	jarID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req moveReq
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := fn(c.Request.Context(), savings.MoveInput{
		UserID:    currentUser(c),
		JarID:     jarID,
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Date:      date,
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newDepositView(d))
}

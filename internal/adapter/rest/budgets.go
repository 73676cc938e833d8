package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/budget"
)

// GetBudget handles GET /api/budgets/:month. The budget is created on first read and
// the auto extra-income item is reconciled before the allocation is computed.
func (h *Handler) GetBudget(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	h.respondBudget(c, month, http.StatusOK)
}

func (h *Handler) respondBudget(c *gin.Context, month domain.Month, status int) {
	ev, err := h.Budgets.Evaluate(c.Request.Context(), currentUser(c), month)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, status, newBudgetView(ev))
}

type budgetReq struct {
	FixedIncome  decimal.Decimal `json:"fixed_income"`
	FixedExpense decimal.Decimal `json:"fixed_expense"`
	ExtraIncome  decimal.Decimal `json:"extra_income"`
}

// UpdateBudget handles PUT /api/budgets/:month (legacy aggregate amounts)
func (h *Handler) UpdateBudget(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	var req budgetReq
	if !bindJSON(c, &req) {
		return
	}
	_, err := h.Budgets.UpdateBudget(c.Request.Context(), currentUser(c), month, budget.UpdateBudgetInput{
		FixedIncome:  req.FixedIncome,
		FixedExpense: req.FixedExpense,
		ExtraIncome:  req.ExtraIncome,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondBudget(c, month, http.StatusOK)
}

// budgetID resolves the id of the month's budget, creating it if needed
func (h *Handler) budgetID(c *gin.Context, month domain.Month) (uuid.UUID, bool) {
	b, err := h.Budgets.GetOrCreateBudget(c.Request.Context(), currentUser(c), month)
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	return b.ID, true
}

type budgetCategoryReq struct {
	Name            string              `json:"name" binding:"required"`
	Type            domain.CategoryPool `json:"type" binding:"required,oneof=fixed extra"`
	Percentage      decimal.Decimal     `json:"percentage"`
	ExtraPercentage decimal.Decimal     `json:"extra_percentage"`
	Color           string              `json:"color"`
	Icon            string              `json:"icon"`
}

func (r budgetCategoryReq) input() budget.CategoryInput {
	return budget.CategoryInput{
		Name:            r.Name,
		Type:            r.Type,
		Percentage:      r.Percentage,
		ExtraPercentage: r.ExtraPercentage,
		Color:           r.Color,
		Icon:            r.Icon,
	}
}

// AddBudgetCategory handles POST /api/budgets/:month/categories
func (h *Handler) AddBudgetCategory(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	var req budgetCategoryReq
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.Budgets.AddCategory(c.Request.Context(), currentUser(c), month, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newBudgetCategoryView(cat))
}

// UpdateBudgetCategory handles PATCH /api/budgets/:month/categories/:id
func (h *Handler) UpdateBudgetCategory(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req budgetCategoryReq
	if !bindJSON(c, &req) {
		return
	}
	budgetID, ok := h.budgetID(c, month)
	if !ok {
		return
	}
	cat, err := h.Budgets.UpdateCategory(c.Request.Context(), currentUser(c), budgetID, id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newBudgetCategoryView(cat))
}

// DeleteBudgetCategory handles DELETE /api/budgets/:month/categories/:id
func (h *Handler) DeleteBudgetCategory(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	budgetID, ok := h.budgetID(c, month)
	if !ok {
		return
	}
	if err := h.Budgets.DeleteCategory(c.Request.Context(), currentUser(c), budgetID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type budgetItemReq struct {
	Type   domain.BudgetItemType `json:"type" binding:"required,oneof=fixed_income fixed_expense extra_income"`
	Name   string                `json:"name" binding:"required"`
	Amount decimal.Decimal       `json:"amount"`
}

func (r budgetItemReq) input() budget.ItemInput {
	return budget.ItemInput{Type: r.Type, Name: r.Name, Amount: r.Amount}
}

// AddBudgetItem handles POST /api/budgets/:month/items
func (h *Handler) AddBudgetItem(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	var req budgetItemReq
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.Budgets.AddItem(c.Request.Context(), currentUser(c), month, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newBudgetItemView(item))
}

// UpdateBudgetItem handles PATCH /api/budgets/:month/items/:id. Auto-calculated items are read-only.
func (h *Handler) UpdateBudgetItem(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req budgetItemReq
	if !bindJSON(c, &req) {
		return
	}
	budgetID, ok := h.budgetID(c, month)
	if !ok {
		return
	}
	item, err := h.Budgets.UpdateItem(c.Request.Context(), currentUser(c), budgetID, id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newBudgetItemView(item))
}

// DeleteBudgetItem handles DELETE /api/budgets/:month/items/:id
func (h *Handler) DeleteBudgetItem(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	budgetID, ok := h.budgetID(c, month)
	if !ok {
		return
	}
	if err := h.Budgets.DeleteItem(c.Request.Context(), currentUser(c), budgetID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

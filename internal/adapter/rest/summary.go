package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultHistoryMonths = 12

// GetMonthSummary handles GET /api/summary/:month
func (h *Handler) GetMonthSummary(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	s, err := h.Disposable.MonthSummary(c.Request.Context(), currentUser(c), month)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newSummaryView(s))
}

// GetNetWorth handles GET /api/networth
func (h *Handler) GetNetWorth(c *gin.Context) {
	s, err := h.NetWorth.Summary(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newNetWorthView(s))
}

// GetNetWorthHistory handles GET /api/networth/history?months=N
func (h *Handler) GetNetWorthHistory(c *gin.Context) {
	months := defaultHistoryMonths
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "months must be an integer")
			return
		}
		months = n
	}
	points, err := h.NetWorth.History(c.Request.Context(), currentUser(c), months)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, newPointViews(points))
}

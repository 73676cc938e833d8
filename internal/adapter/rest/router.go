// Package rest exposes the services over a JSON HTTP API built on gin.
// Every mutating endpoint finishes its reconciliation before it responds.
package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/account"
	"github.com/simaogato/moneyjar/internal/usecase/budget"
	"github.com/simaogato/moneyjar/internal/usecase/disposable"
	"github.com/simaogato/moneyjar/internal/usecase/investment"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
	"github.com/simaogato/moneyjar/internal/usecase/networth"
	"github.com/simaogato/moneyjar/internal/usecase/savings"
)

// ActivityTracker is told which users are looking at their holdings
type ActivityTracker interface {
	Touch(userID string)
}

// Handler holds the services behind the HTTP routes
type Handler struct {
	Accounts    *account.AccountService
	Ledger      *ledger.Service
	Investments *investment.InvestmentService
	Budgets     *budget.BudgetService
	Disposable  *disposable.DisposableService
	Savings     *savings.SavingsService
	NetWorth    *networth.NetWorthService

	// Activity is optional; when set, portfolio reads keep the price poller running for the user
	Activity ActivityTracker
}

// RouterConfig holds the transport settings of the router
type RouterConfig struct {
	GinMode   string
	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter configures the gin engine and registers every route
func NewRouter(cfg RouterConfig, h *Handler) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(AuthMiddleware(cfg.JWTSecret))

	// accounts
	api.GET("/accounts", h.ListAccounts)
	api.POST("/accounts", h.CreateAccount)
	api.GET("/accounts/:id", h.GetAccount)
	api.PATCH("/accounts/:id", h.UpdateAccount)
	api.DELETE("/accounts/:id", h.DeleteAccount)
	api.POST("/accounts/:id/adjust", h.AdjustAccount)

	// ledger
	api.GET("/ledger", h.ListEntries)
	api.POST("/ledger", h.CreateEntry)
	api.PATCH("/ledger/:id", h.UpdateEntry)
	api.DELETE("/ledger/:id", h.DeleteEntry)
	api.POST("/transfer", h.Transfer)

	// investments
	api.GET("/investments", h.GetPortfolio)
	api.POST("/investments/refresh", h.RefreshPrices)
	api.GET("/investments/transactions", h.ListTransactions)
	api.POST("/investments/transactions", h.RecordTransaction)
	api.DELETE("/investments/transactions/:id", h.DeleteTransaction)
	api.POST("/investments/position-changes", h.RecordPositionChange)

	// budgets
	api.GET("/budgets/:month", h.GetBudget)
	api.PUT("/budgets/:month", h.UpdateBudget)
	api.POST("/budgets/:month/categories", h.AddBudgetCategory)
	api.PATCH("/budgets/:month/categories/:id", h.UpdateBudgetCategory)
	api.DELETE("/budgets/:month/categories/:id", h.DeleteBudgetCategory)
	api.POST("/budgets/:month/items", h.AddBudgetItem)
	api.PATCH("/budgets/:month/items/:id", h.UpdateBudgetItem)
	api.DELETE("/budgets/:month/items/:id", h.DeleteBudgetItem)

	// savings jars
	api.GET("/jars", h.ListJars)
	api.POST("/jars", h.CreateJar)
	api.GET("/jars/:id", h.GetJar)
	api.PATCH("/jars/:id", h.UpdateJar)
	api.DELETE("/jars/:id", h.DeleteJar)
	api.POST("/jars/:id/categories", h.SaveJarCategory)
	api.PATCH("/jars/:id/categories/:categoryID", h.SaveJarCategory)
	api.DELETE("/jars/:id/categories/:categoryID", h.DeleteJarCategory)
	api.GET("/jars/:id/deposits", h.ListDeposits)
	api.POST("/jars/:id/deposit", h.Deposit)
	api.POST("/jars/:id/withdraw", h.Withdraw)

	// summaries
	api.GET("/summary/:month", h.GetMonthSummary)
	api.GET("/networth", h.GetNetWorth)
	api.GET("/networth/history", h.GetNetWorthHistory)

	return r
}

// ---------- request helpers ----------

// bindJSON decodes the body into req, aborting with 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// uuidParam parses the named path parameter, aborting with 400 on failure
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid %s: %q is not a UUID", name, c.Param(name)))
		return uuid.Nil, false
	}
	return id, true
}

// monthParam parses the :month path parameter ("YYYY-MM")
func monthParam(c *gin.Context) (domain.Month, bool) {
	m, err := domain.ParseMonth(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return domain.Month{}, false
	}
	return m, true
}

// parseDate parses an optional "YYYY-MM-DD" field; empty means zero (today)
func parseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return domain.ParseDate(s)
}

// parseOptionalUUID parses an optional id field
func parseOptionalUUID(field, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, domain.Invalid(field, fmt.Sprintf("%q is not a UUID", s))
	}
	return &id, nil
}

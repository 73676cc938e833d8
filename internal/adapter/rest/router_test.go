package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/moneyjar/internal/adapter/repository/memory"
	"github.com/simaogato/moneyjar/internal/auth"
	"github.com/simaogato/moneyjar/internal/usecase/account"
	"github.com/simaogato/moneyjar/internal/usecase/budget"
	"github.com/simaogato/moneyjar/internal/usecase/disposable"
	"github.com/simaogato/moneyjar/internal/usecase/investment"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
	"github.com/simaogato/moneyjar/internal/usecase/networth"
	"github.com/simaogato/moneyjar/internal/usecase/savings"
)

const testSecret = "test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	budgets := budget.NewBudgetService(store, log)
	h := &Handler{
		Accounts:    account.NewAccountService(store, log),
		Ledger:      ledger.NewService(store, log),
		Investments: investment.NewInvestmentService(store, nil, log),
		Budgets:     budgets,
		Disposable:  disposable.NewDisposableService(store, budgets),
		Savings:     savings.NewSavingsService(store, log),
		NetWorth:    networth.NewNetWorthService(store, nil, ""),
	}
	router := NewRouter(RouterConfig{GinMode: gin.TestMode, JWTSecret: testSecret, Log: log}, h)

	token, err := auth.GenerateToken(testSecret, "user-1", auth.DefaultTTL)
	require.NoError(t, err)
	return &testAPI{t: t, router: router, token: token}
}

func (a *testAPI) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testAPI) createAccount(name, balance string) accountView {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/accounts", gin.H{"name": name, "balance": balance})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var v accountView
	require.NoError(a.t, json.Unmarshal(env.Data, &v))
	return v
}

func (a *testAPI) balance(id string) decimal.Decimal {
	a.t.Helper()
	w, env := a.do(http.MethodGet, "/api/accounts/"+id, nil)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var v accountView
	require.NoError(a.t, json.Unmarshal(env.Data, &v))
	return v.Balance
}

func TestRouter_Healthz(t *testing.T) {
	api := newTestAPI(t)
	w, _ := api.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"bad token", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api.token = tt.token
			w, env := api.do(http.MethodGet, "/api/accounts", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, CodeAuth, env.Code)
		})
	}
}

func TestRouter_QueryToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.token
	api.token = ""

	w, env := api.do(http.MethodGet, "/api/accounts?token="+token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CodeOK, env.Code)
}

func TestRouter_AccountsAndLedger(t *testing.T) {
	api := newTestAPI(t)
	cash := api.createAccount("Cash", "1000")
	assert.Equal(t, "TWD", cash.Currency)
	assert.True(t, cash.IncludeInTotal)

	w, env := api.do(http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []accountView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	// expense lowers the balance
	w, env = api.do(http.MethodPost, "/api/ledger", gin.H{
		"type": "expense", "amount": "200", "category": "Food",
		"account_id": cash.ID.String(), "date": "2026-10-05",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry entryView
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, "2026-10-05", entry.Date)
	assert.True(t, decimal.NewFromInt(800).Equal(api.balance(cash.ID.String())))

	// editing the amount re-applies the difference
	w, _ = api.do(http.MethodPatch, "/api/ledger/"+entry.ID.String(), gin.H{
		"type": "expense", "amount": "50", "category": "Food",
		"account_id": cash.ID.String(), "date": "2026-10-05",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decimal.NewFromInt(950).Equal(api.balance(cash.ID.String())))

	w, env = api.do(http.MethodGet, "/api/ledger?month=2026-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []entryView
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 1)

	// delete reverts the effect
	w, _ = api.do(http.MethodDelete, "/api/ledger/"+entry.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, decimal.NewFromInt(1000).Equal(api.balance(cash.ID.String())))
}

func TestRouter_ErrorEnvelopes(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   int
	}{
		{"unknown account", http.MethodGet, "/api/accounts/6f1d2c1e-8c1b-4a57-9a43-0a4d4b7f1b2a", nil, http.StatusNotFound, CodeNotFound},
		{"malformed id", http.MethodGet, "/api/accounts/abc", nil, http.StatusBadRequest, CodeInvalidParam},
		{"bad entry type", http.MethodPost, "/api/ledger", gin.H{"type": "refund", "amount": "1", "category": "Food"}, http.StatusBadRequest, CodeInvalidParam},
		{"non-positive amount", http.MethodPost, "/api/ledger", gin.H{"type": "expense", "amount": "0", "category": "Food"}, http.StatusBadRequest, CodeInvalidParam},
		{"bad month", http.MethodGet, "/api/budgets/2026-13", nil, http.StatusBadRequest, CodeInvalidParam},
		{"history out of range", http.MethodGet, "/api/networth/history?months=0", nil, http.StatusBadRequest, CodeInvalidParam},
		{"history not a number", http.MethodGet, "/api/networth/history?months=abc", nil, http.StatusBadRequest, CodeInvalidParam},
		{"unknown currency", http.MethodPost, "/api/accounts", gin.H{"name": "X", "currency": "ZZZ"}, http.StatusBadRequest, CodeInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestRouter_TransferAndNetWorth(t *testing.T) {
	api := newTestAPI(t)
	cash := api.createAccount("Cash", "1000")
	bank := api.createAccount("Bank", "0")

	w, env := api.do(http.MethodPost, "/api/transfer", gin.H{
		"from_account_id": cash.ID.String(), "to_account_id": bank.ID.String(), "amount": "300",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var pair map[string]entryView
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	assert.Equal(t, "轉帳", pair["out"].Category)
	assert.Equal(t, "轉帳", pair["in"].Category)
	require.NotNil(t, pair["out"].TransferPeerID)
	assert.Equal(t, pair["in"].ID, *pair["out"].TransferPeerID)

	assert.True(t, decimal.NewFromInt(700).Equal(api.balance(cash.ID.String())))
	assert.True(t, decimal.NewFromInt(300).Equal(api.balance(bank.ID.String())))

	// overdrawing is rejected and nothing moves
	w, _ = api.do(http.MethodPost, "/api/transfer", gin.H{
		"from_account_id": cash.ID.String(), "to_account_id": bank.ID.String(), "amount": "701",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, decimal.NewFromInt(700).Equal(api.balance(cash.ID.String())))

	w, env = api.do(http.MethodGet, "/api/networth", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nw netWorthView
	require.NoError(t, json.Unmarshal(env.Data, &nw))
	assert.Equal(t, "TWD", nw.Currency)
	assert.True(t, decimal.NewFromInt(1000).Equal(nw.NetWorth))
	assert.Len(t, nw.Accounts, 2)

	w, env = api.do(http.MethodGet, "/api/networth/history?months=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var points []pointView
	require.NoError(t, json.Unmarshal(env.Data, &points))
	assert.NotEmpty(t, points)
}

func TestRouter_BudgetAllocation(t *testing.T) {
	api := newTestAPI(t)

	for _, item := range []gin.H{
		{"type": "fixed_income", "name": "Salary", "amount": "50000"},
		{"type": "fixed_expense", "name": "Rent", "amount": "20000"},
	} {
		w, _ := api.do(http.MethodPost, "/api/budgets/2026-10/items", item)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w, _ := api.do(http.MethodPost, "/api/budgets/2026-10/categories", gin.H{
		"name": "Food", "type": "fixed", "percentage": "50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := api.do(http.MethodGet, "/api/budgets/2026-10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var b budgetView
	require.NoError(t, json.Unmarshal(env.Data, &b))
	assert.Equal(t, "2026-10", b.Month)
	assert.True(t, decimal.NewFromInt(30000).Equal(b.FixedDisposable))
	assert.True(t, decimal.NewFromInt(50).Equal(b.FixedUnallocated))
	require.Len(t, b.Categories, 1)
	assert.Equal(t, "Food", b.Categories[0].Name)

	w, env = api.do(http.MethodGet, "/api/summary/2026-10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s summaryView
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, "2026-10", s.Month)
}

func TestRouter_JarDepositFlow(t *testing.T) {
	api := newTestAPI(t)
	cash := api.createAccount("Cash", "1000")

	w, env := api.do(http.MethodPost, "/api/jars", gin.H{"name": "Trip", "target_amount": "2000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var jar jarView
	require.NoError(t, json.Unmarshal(env.Data, &jar))

	w, _ = api.do(http.MethodPost, "/api/jars/"+jar.ID.String()+"/deposit", gin.H{
		"account_id": cash.ID.String(), "amount": "400",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decimal.NewFromInt(600).Equal(api.balance(cash.ID.String())))

	w, _ = api.do(http.MethodPost, "/api/jars/"+jar.ID.String()+"/withdraw", gin.H{
		"account_id": cash.ID.String(), "amount": "500",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "cannot withdraw more than the jar holds")

	w, env = api.do(http.MethodGet, "/api/jars/"+jar.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &jar))
	assert.True(t, decimal.NewFromInt(400).Equal(jar.CurrentAmount))

	w, env = api.do(http.MethodGet, "/api/jars/"+jar.ID.String()+"/deposits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deposits []depositView
	require.NoError(t, json.Unmarshal(env.Data, &deposits))
	assert.Len(t, deposits, 1)
}

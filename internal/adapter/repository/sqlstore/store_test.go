package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/adapter/repository/memory"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "user-1"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "moneyjar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

// stores runs fn against the SQLite store and the in-memory store so both honour one contract
func stores(t *testing.T, fn func(t *testing.T, store domain.Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, NewStore(openTestDB(t))) })
	t.Run("memory", func(t *testing.T) { fn(t, memory.NewStore()) })
}

var baseTime = time.Date(2024, time.March, 1, 9, 30, 0, 123456789, time.UTC)

func newAccount(name string) *domain.Account {
	return &domain.Account{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           "TWD",
		Name:           name,
		Balance:        decimal.RequireFromString("1234.5678"),
		Currency:       "TWD",
		ExchangeRate:   decimal.NewFromInt(1),
		IncludeInTotal: true,
		CreatedAt:      baseTime,
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{name: "sqlite untouched", dialect: DialectSQLite, query: "SELECT 1 WHERE a = ? AND b = ?", want: "SELECT 1 WHERE a = ? AND b = ?"},
		{name: "postgres numbered", dialect: DialectPostgres, query: "SELECT 1 WHERE a = ? AND b = ?", want: "SELECT 1 WHERE a = $1 AND b = $2"},
		{name: "postgres no args", dialect: DialectPostgres, query: "SELECT 1", want: "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rebind(tt.dialect, tt.query))
		})
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestMigrate_AppliesOnce(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	applied, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_transfer_peer.sql"}, applied)

	applied, err = db.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	up := extractUpMigration(content)
	assert.Contains(t, up, "CREATE TABLE a")
	assert.NotContains(t, up, "DROP TABLE")
	assert.Len(t, splitStatements(up), 1)
}

func TestAccounts(t *testing.T) {
	stores(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()
		repo := store.Repos().Accounts

		a := newAccount("Bank")
		b := newAccount("Wallet")
		b.CreatedAt = baseTime.Add(time.Hour)
		require.NoError(t, repo.Create(ctx, b))
		require.NoError(t, repo.Create(ctx, a))

		got, err := repo.GetByID(ctx, userID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "1234.5678", got.Balance.String())
		assert.True(t, got.IncludeInTotal)
		assert.True(t, got.CreatedAt.Equal(a.CreatedAt))

		list, err := repo.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Bank", list[0].Name)

		_, err = repo.GetByID(ctx, "intruder", a.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		a.Balance = decimal.NewFromInt(-50)
		a.IncludeInTotal = false
		require.NoError(t, repo.Update(ctx, a))
		got, err = repo.GetByID(ctx, userID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "-50", got.Balance.String())
		assert.False(t, got.IncludeInTotal)

		foreign := *a
		foreign.UserID = "intruder"
		assert.ErrorIs(t, repo.Update(ctx, &foreign), domain.ErrNotFound)

		require.NoError(t, repo.Delete(ctx, userID, a.ID))
		assert.ErrorIs(t, repo.Delete(ctx, userID, a.ID), domain.ErrNotFound)
	})
}

func TestLedger(t *testing.T) {
	stores(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()
		repos := store.Repos()
		account := newAccount("Bank")
		require.NoError(t, repos.Accounts.Create(ctx, account))

		txID := uuid.New()
		entries := []*domain.LedgerEntry{
			{ID: uuid.New(), UserID: userID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(30), Category: "food",
				AccountID: &account.ID, Date: domain.Date(2024, time.March, 10), Kind: domain.EntryKindRegular, CreatedAt: baseTime},
			{ID: uuid.New(), UserID: userID, Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(190), Category: domain.CategoryStockSell,
				AccountID: &account.ID, Date: domain.Date(2024, time.March, 2), Kind: domain.EntryKindTrade, CreatedAt: baseTime,
				Investment: &domain.InvestmentLink{TransactionID: &txID, Ticker: "AAPL", Principal: decimal.NewFromInt(1000), ProfitLoss: decimal.NewFromInt(190)}},
			{ID: uuid.New(), UserID: userID, Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(5), Category: "salary",
				Date: domain.Date(2024, time.April, 1), Kind: domain.EntryKindRegular, CreatedAt: baseTime},
		}
		for _, e := range entries {
			require.NoError(t, repos.Ledger.Create(ctx, e))
		}

		march := domain.Month{Year: 2024, Month: time.March}
		list, err := repos.Ledger.List(ctx, userID, domain.LedgerFilter{From: march.Start(), To: march.End()})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, entries[1].ID, list[0].ID)
		require.NotNil(t, list[0].Investment)
		assert.Equal(t, "AAPL", list[0].Investment.Ticker)
		assert.Equal(t, "190", list[0].Investment.ProfitLoss.String())
		assert.Equal(t, txID, *list[0].Investment.TransactionID)
		assert.Nil(t, list[1].Investment)

		byAccount, err := repos.Ledger.List(ctx, userID, domain.LedgerFilter{AccountID: &account.ID})
		require.NoError(t, err)
		assert.Len(t, byAccount, 2)

		entries[0].Amount = decimal.RequireFromString("31.25")
		entries[0].Note = "edited"
		require.NoError(t, repos.Ledger.Update(ctx, entries[0]))
		got, err := repos.Ledger.GetByID(ctx, userID, entries[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "31.25", got.Amount.String())
		assert.Equal(t, "edited", got.Note)
		assert.True(t, got.Date.Equal(domain.Date(2024, time.March, 10)))
		assert.Nil(t, got.TransferPeerID)

		peer := uuid.New()
		entries[0].TransferPeerID = &peer
		require.NoError(t, repos.Ledger.Update(ctx, entries[0]))
		got, err = repos.Ledger.GetByID(ctx, userID, entries[0].ID)
		require.NoError(t, err)
		require.NotNil(t, got.TransferPeerID)
		assert.Equal(t, peer, *got.TransferPeerID)

		require.NoError(t, repos.Ledger.DetachAccount(ctx, userID, account.ID))
		got, err = repos.Ledger.GetByID(ctx, userID, entries[1].ID)
		require.NoError(t, err)
		assert.Nil(t, got.AccountID)

		require.NoError(t, repos.Ledger.Delete(ctx, userID, entries[2].ID))
		_, err = repos.Ledger.GetByID(ctx, userID, entries[2].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestInTx_RollsBackOnError(t *testing.T) {
	stores(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()
		a := newAccount("Bank")
		boom := errors.New("boom")

		err := store.InTx(ctx, func(repos domain.Repositories) error {
			if err := repos.Accounts.Create(ctx, a); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.Repos().Accounts.GetByID(ctx, userID, a.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, store.InTx(ctx, func(repos domain.Repositories) error {
			return repos.Accounts.Create(ctx, a)
		}))
		_, err = store.Repos().Accounts.GetByID(ctx, userID, a.ID)
		assert.NoError(t, err)
	})
}

func TestBudgets(t *testing.T) {
	stores(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()
		repo := store.Repos().Budgets
		month := domain.Month{Year: 2024, Month: time.March}

		_, err := repo.GetByMonth(ctx, userID, month)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		b := &domain.Budget{ID: uuid.New(), UserID: userID, Month: month, FixedIncome: decimal.NewFromInt(50000), CreatedAt: baseTime}
		require.NoError(t, repo.Create(ctx, b))
		assert.Error(t, repo.Create(ctx, &domain.Budget{ID: uuid.New(), UserID: userID, Month: month, CreatedAt: baseTime}))

		got, err := repo.GetByMonth(ctx, userID, month)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
		assert.Equal(t, month, got.Month)
		assert.Equal(t, "50000", got.FixedIncome.String())

		cat := &domain.BudgetCategory{ID: uuid.New(), BudgetID: b.ID, Name: "Food", Type: domain.CategoryPoolFixed,
			Percentage: decimal.NewFromInt(20), ExtraPercentage: decimal.NewFromInt(10)}
		require.NoError(t, repo.SaveCategory(ctx, cat))
		cat.Percentage = decimal.NewFromInt(25)
		require.NoError(t, repo.SaveCategory(ctx, cat))
		cats, err := repo.ListCategories(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, "25", cats[0].Percentage.String())

		first := &domain.BudgetItem{ID: uuid.New(), BudgetID: b.ID, Type: domain.BudgetItemExtraIncome, Name: domain.AutoExtraIncomeName,
			Amount: decimal.NewFromInt(100), IsAutoCalculated: true, CreatedAt: baseTime}
		second := &domain.BudgetItem{ID: uuid.New(), BudgetID: b.ID, Type: domain.BudgetItemFixedIncome, Name: "Salary",
			Amount: decimal.NewFromInt(50000), CreatedAt: baseTime.Add(time.Second)}
		require.NoError(t, repo.CreateItem(ctx, second))
		require.NoError(t, repo.CreateItem(ctx, first))

		items, err := repo.ListItems(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, first.ID, items[0].ID)
		assert.True(t, items[0].IsAutoCalculated)

		first.Amount = decimal.NewFromInt(200)
		require.NoError(t, repo.UpdateItem(ctx, first))
		require.NoError(t, repo.DeleteItem(ctx, b.ID, second.ID))
		assert.ErrorIs(t, repo.DeleteItem(ctx, b.ID, second.ID), domain.ErrNotFound)
		require.NoError(t, repo.DeleteCategory(ctx, b.ID, cat.ID))

		items, err = repo.ListItems(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "200", items[0].Amount.String())
	})
}

func TestHoldingsAndTransactions(t *testing.T) {
	stores(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()
		repos := store.Repos()
		broker := uuid.New()

		h := &domain.InvestmentHolding{ID: uuid.New(), UserID: userID, BrokerAccountID: broker, Ticker: "AAPL", Market: "US",
			Quantity: decimal.NewFromInt(10), AverageCost: decimal.RequireFromString("150.5"), CurrentPrice: decimal.NewFromInt(160)}
		require.NoError(t, repos.Holdings.Save(ctx, h))

		got, err := repos.Holdings.GetByPosition(ctx, userID, broker, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "150.5", got.AverageCost.String())
		assert.Nil(t, got.PriceUpdatedAt)

		updated := baseTime
		h.Quantity = decimal.NewFromInt(4)
		h.PriceUpdatedAt = &updated
		require.NoError(t, repos.Holdings.Save(ctx, h))
		got, err = repos.Holdings.GetByID(ctx, userID, h.ID)
		require.NoError(t, err)
		assert.Equal(t, "4", got.Quantity.String())
		require.NotNil(t, got.PriceUpdatedAt)
		assert.True(t, got.PriceUpdatedAt.Equal(updated))

		_, err = repos.Holdings.GetByPosition(ctx, userID, broker, "MSFT")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		later := &domain.InvestmentTransaction{ID: uuid.New(), UserID: userID, HoldingID: h.ID, BrokerAccountID: broker, PaymentAccountID: uuid.New(),
			Ticker: "AAPL", Type: domain.TradeTypeSell, Quantity: decimal.NewFromInt(6), PricePerShare: decimal.NewFromInt(170),
			Fees: decimal.NewFromInt(1), Date: domain.Date(2024, time.March, 5), CreatedAt: baseTime}
		earlier := &domain.InvestmentTransaction{ID: uuid.New(), UserID: userID, HoldingID: h.ID, BrokerAccountID: broker, PaymentAccountID: uuid.New(),
			Ticker: "AAPL", Type: domain.TradeTypeBuy, Quantity: decimal.NewFromInt(10), PricePerShare: decimal.RequireFromString("150.5"),
			Date: domain.Date(2024, time.March, 1), CreatedAt: baseTime.Add(time.Hour)}
		require.NoError(t, repos.Transactions.Create(ctx, later))
		require.NoError(t, repos.Transactions.Create(ctx, earlier))

		txs, err := repos.Transactions.ListByPosition(ctx, userID, broker, "AAPL")
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, earlier.ID, txs[0].ID)
		assert.Nil(t, txs[0].LedgerEntryID)

		entryID := uuid.New()
		newHolding := uuid.New()
		later.LedgerEntryID = &entryID
		later.HoldingID = newHolding
		require.NoError(t, repos.Transactions.Update(ctx, later))
		gotTx, err := repos.Transactions.GetByID(ctx, userID, later.ID)
		require.NoError(t, err)
		assert.Equal(t, newHolding, gotTx.HoldingID)
		assert.Equal(t, entryID, *gotTx.LedgerEntryID)

		require.NoError(t, repos.Holdings.Delete(ctx, userID, h.ID))
		list, err := repos.Holdings.List(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestJars(t *testing.T) {
	stores(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()
		repo := store.Repos().Jars

		jar := &domain.SavingsJar{ID: uuid.New(), UserID: userID, Name: "Trip", TargetAmount: decimal.NewFromInt(2000),
			IncludeInDisposable: true, CreatedAt: baseTime}
		require.NoError(t, repo.Create(ctx, jar))

		cat := &domain.SavingsJarCategory{ID: uuid.New(), JarID: jar.ID, Name: "Flights", Percentage: decimal.NewFromInt(60)}
		require.NoError(t, repo.SaveCategory(ctx, cat))

		entryID := uuid.New()
		require.NoError(t, repo.CreateDeposit(ctx, &domain.SavingsJarDeposit{ID: uuid.New(), JarID: jar.ID, SourceAccountID: uuid.New(),
			Amount: decimal.NewFromInt(-200), Date: domain.Date(2024, time.March, 4), LedgerEntryID: &entryID, CreatedAt: baseTime}))
		require.NoError(t, repo.CreateDeposit(ctx, &domain.SavingsJarDeposit{ID: uuid.New(), JarID: jar.ID, SourceAccountID: uuid.New(),
			Amount: decimal.NewFromInt(500), Date: domain.Date(2024, time.March, 3), CreatedAt: baseTime}))

		deposits, err := repo.ListDeposits(ctx, jar.ID)
		require.NoError(t, err)
		require.Len(t, deposits, 2)
		assert.Equal(t, "500", deposits[0].Amount.String())
		assert.Equal(t, entryID, *deposits[1].LedgerEntryID)

		jar.CurrentAmount = decimal.NewFromInt(300)
		require.NoError(t, repo.Update(ctx, jar))
		got, err := repo.GetByID(ctx, userID, jar.ID)
		require.NoError(t, err)
		assert.Equal(t, "300", got.CurrentAmount.String())
		assert.True(t, got.IncludeInDisposable)

		require.NoError(t, repo.Delete(ctx, userID, jar.ID))
		cats, err := repo.ListCategories(ctx, jar.ID)
		require.NoError(t, err)
		assert.Empty(t, cats)
		assert.ErrorIs(t, repo.Delete(ctx, userID, jar.ID), domain.ErrNotFound)
	})
}

func TestLedgerService_OnSQLite(t *testing.T) {
	ctx := context.Background()
	store := NewStore(openTestDB(t))
	account := newAccount("Bank")
	account.Balance = decimal.NewFromInt(1000)
	require.NoError(t, store.Repos().Accounts.Create(ctx, account))

	svc := ledger.NewService(store, zerolog.Nop())
	entry, err := svc.CreateEntry(ctx, ledger.EntryInput{
		UserID: userID, Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(500),
		Category: "salary", AccountID: &account.ID, Date: domain.Date(2024, time.March, 1),
	})
	require.NoError(t, err)

	got, err := store.Repos().Accounts.GetByID(ctx, userID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "1500", got.Balance.String())

	require.NoError(t, svc.DeleteEntry(ctx, userID, entry.ID))
	got, err = store.Repos().Accounts.GetByID(ctx, userID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", got.Balance.String())
}

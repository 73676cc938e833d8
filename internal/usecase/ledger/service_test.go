package ledger

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/moneyjar/internal/adapter/repository/memory"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "user-1"

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(store, zerolog.Nop())
	svc.Now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func seedAccount(t *testing.T, store *memory.Store, name, currency string, balance, rate int64) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           currency,
		Name:           name,
		Balance:        decimal.NewFromInt(balance),
		Currency:       currency,
		ExchangeRate:   decimal.NewFromInt(rate),
		IncludeInTotal: true,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, store.Repos().Accounts.Create(context.Background(), account))
	return account
}

func balanceOf(t *testing.T, store *memory.Store, id uuid.UUID) string {
	t.Helper()
	account, err := store.Repos().Accounts.GetByID(context.Background(), userID, id)
	require.NoError(t, err)
	return account.Balance.String()
}

func TestService_CreateEditDeleteRestoresBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	account := seedAccount(t, store, "Wallet", "TWD", 1000, 1)

	created, err := svc.CreateEntry(ctx, EntryInput{
		UserID:    userID,
		Type:      domain.EntryTypeIncome,
		Amount:    decimal.NewFromInt(500),
		Category:  "Salary",
		AccountID: &account.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "1500", balanceOf(t, store, account.ID))

	_, err = svc.UpdateEntry(ctx, created.ID, EntryInput{
		UserID:    userID,
		Type:      domain.EntryTypeExpense,
		Amount:    decimal.NewFromInt(200),
		Category:  "Food",
		AccountID: &account.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "800", balanceOf(t, store, account.ID))

	require.NoError(t, svc.DeleteEntry(ctx, userID, created.ID))
	assert.Equal(t, "1000", balanceOf(t, store, account.ID))
}

func TestService_EditMovesEffectBetweenAccounts(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	a := seedAccount(t, store, "A", "TWD", 1000, 1)
	b := seedAccount(t, store, "B", "TWD", 1000, 1)

	created, err := svc.CreateEntry(ctx, EntryInput{
		UserID: userID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(100),
		Category: "Food", AccountID: &a.ID,
	})
	require.NoError(t, err)

	_, err = svc.UpdateEntry(ctx, created.ID, EntryInput{
		UserID: userID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(150),
		Category: "Food", AccountID: &b.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "1000", balanceOf(t, store, a.ID))
	assert.Equal(t, "850", balanceOf(t, store, b.ID))
}

func TestService_BalanceMatchesLiveEntries(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	account := seedAccount(t, store, "Wallet", "TWD", 1000, 1)
	rng := rand.New(rand.NewSource(42))

	var live []uuid.UUID
	for i := 0; i < 200; i++ {
		input := EntryInput{
			UserID:    userID,
			Type:      domain.EntryTypeIncome,
			Amount:    decimal.NewFromInt(int64(rng.Intn(500) + 1)),
			Category:  "Misc",
			AccountID: &account.ID,
		}
		if rng.Intn(2) == 0 {
			input.Type = domain.EntryTypeExpense
		}

		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			e, err := svc.CreateEntry(ctx, input)
			require.NoError(t, err)
			live = append(live, e.ID)
		case op == 1:
			_, err := svc.UpdateEntry(ctx, live[rng.Intn(len(live))], input)
			require.NoError(t, err)
		default:
			idx := rng.Intn(len(live))
			require.NoError(t, svc.DeleteEntry(ctx, userID, live[idx]))
			live = append(live[:idx], live[idx+1:]...)
		}
	}

	entries, err := svc.ListEntries(ctx, userID, domain.LedgerFilter{AccountID: &account.ID})
	require.NoError(t, err)
	require.Len(t, entries, len(live))

	expected := decimal.NewFromInt(1000)
	for _, e := range entries {
		expected = expected.Add(e.SignedAmount())
	}
	assert.Equal(t, expected.String(), balanceOf(t, store, account.ID))
}

func TestService_EntryOnDeletedAccountIsKept(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	account := seedAccount(t, store, "Wallet", "TWD", 1000, 1)

	created, err := svc.CreateEntry(ctx, EntryInput{
		UserID: userID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(10),
		Category: "Food", AccountID: &account.ID,
	})
	require.NoError(t, err)

	require.NoError(t, store.Repos().Accounts.Delete(ctx, userID, account.ID))
	require.NoError(t, svc.DeleteEntry(ctx, userID, created.ID))

	_, err = store.Repos().Ledger.GetByID(ctx, userID, created.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestService_CreateEntryRejectsUnknownAccount(t *testing.T) {
	svc, store := newTestService(t)
	missing := uuid.New()

	_, err := svc.CreateEntry(context.Background(), EntryInput{
		UserID: userID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(10),
		Category: "Food", AccountID: &missing,
	})
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 0, store.Writes())
}

func TestService_CreateEntryValidation(t *testing.T) {
	tests := []struct {
		name  string
		input EntryInput
	}{
		{"zero amount", EntryInput{UserID: userID, Type: domain.EntryTypeIncome, Amount: decimal.Zero, Category: "x"}},
		{"negative amount", EntryInput{UserID: userID, Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(-1), Category: "x"}},
		{"missing category", EntryInput{UserID: userID, Type: domain.EntryTypeIncome, Amount: decimal.NewFromInt(1)}},
		{"bad type", EntryInput{UserID: userID, Type: "gift", Amount: decimal.NewFromInt(1), Category: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			_, err := svc.CreateEntry(context.Background(), tt.input)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Equal(t, 0, store.Writes())
		})
	}
}

func TestService_TransferIsCashFlowNeutral(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	x := seedAccount(t, store, "X", "TWD", 1000, 1)
	y := seedAccount(t, store, "Y", "TWD", 100, 1)

	result, err := svc.Transfer(ctx, TransferInput{
		UserID: userID, FromAccountID: x.ID, ToAccountID: y.ID, Amount: decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindTransfer, result.Out.Kind)
	assert.Equal(t, domain.EntryKindTransfer, result.In.Kind)

	assert.Equal(t, "700", balanceOf(t, store, x.ID))
	assert.Equal(t, "400", balanceOf(t, store, y.ID))

	income, expense, err := svc.MonthCashFlow(ctx, userID, domain.Month{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.True(t, income.IsZero())
	assert.True(t, expense.IsZero())
}

func TestService_DeletingOneTransferSideRemovesBoth(t *testing.T) {
	tests := []struct {
		name string
		side func(*TransferResult) uuid.UUID
	}{
		{"outgoing side", func(r *TransferResult) uuid.UUID { return r.Out.ID }},
		{"incoming side", func(r *TransferResult) uuid.UUID { return r.In.ID }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store := newTestService(t)
			x := seedAccount(t, store, "X", "TWD", 1000, 1)
			y := seedAccount(t, store, "Y", "TWD", 0, 1)

			result, err := svc.Transfer(ctx, TransferInput{
				UserID: userID, FromAccountID: x.ID, ToAccountID: y.ID, Amount: decimal.NewFromInt(300),
			})
			require.NoError(t, err)
			require.NotNil(t, result.Out.TransferPeerID)
			assert.Equal(t, result.In.ID, *result.Out.TransferPeerID)

			require.NoError(t, svc.DeleteEntry(ctx, userID, tt.side(result)))

			assert.Equal(t, "1000", balanceOf(t, store, x.ID))
			assert.Equal(t, "0", balanceOf(t, store, y.ID))
			entries, err := svc.ListEntries(ctx, userID, domain.LedgerFilter{})
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestService_UnlinkedTransferSideCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	x := seedAccount(t, store, "X", "TWD", 700, 1)

	legacy := &domain.LedgerEntry{
		ID: uuid.New(), UserID: userID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(300),
		Category: domain.CategoryTransfer, AccountID: &x.ID, Date: domain.Date(2024, time.March, 1),
		Kind: domain.EntryKindTransfer, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Repos().Ledger.Create(ctx, legacy))
	writes := store.Writes()

	err := svc.DeleteEntry(ctx, userID, legacy.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "700", balanceOf(t, store, x.ID))
	assert.Equal(t, writes, store.Writes())
}

func TestService_TransferConvertsCurrency(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	usd := seedAccount(t, store, "USD", "USD", 100, 32)
	twd := seedAccount(t, store, "TWD", "TWD", 0, 1)

	result, err := svc.Transfer(ctx, TransferInput{
		UserID: userID, FromAccountID: usd.ID, ToAccountID: twd.ID, Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "320", result.In.Amount.String())
	assert.Equal(t, "90", balanceOf(t, store, usd.ID))
	assert.Equal(t, "320", balanceOf(t, store, twd.ID))
}

func TestService_TransferValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	x := seedAccount(t, store, "X", "TWD", 100, 1)
	y := seedAccount(t, store, "Y", "TWD", 0, 1)
	writes := store.Writes()

	tests := []struct {
		name  string
		input TransferInput
	}{
		{"same account", TransferInput{UserID: userID, FromAccountID: x.ID, ToAccountID: x.ID, Amount: decimal.NewFromInt(1)}},
		{"insufficient balance", TransferInput{UserID: userID, FromAccountID: x.ID, ToAccountID: y.ID, Amount: decimal.NewFromInt(101)}},
		{"zero amount", TransferInput{UserID: userID, FromAccountID: x.ID, ToAccountID: y.ID, Amount: decimal.Zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tt.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, writes, store.Writes())
		})
	}
}

func TestService_AdjustAndSetBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	account := seedAccount(t, store, "Wallet", "TWD", 1000, 1)

	_, err := svc.AdjustBalance(ctx, AdjustBalanceInput{
		UserID: userID, AccountID: account.ID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	entry, err := svc.SetBalance(ctx, userID, account.ID, decimal.NewFromInt(750), "recount")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, domain.EntryTypeExpense, entry.Type)
	assert.Equal(t, "250", entry.Amount.String())
	assert.Equal(t, domain.EntryKindAdjustment, entry.Kind)
	assert.Equal(t, "750", balanceOf(t, store, account.ID))

	writes := store.Writes()
	entry, err = svc.SetBalance(ctx, userID, account.ID, decimal.NewFromInt(750), "recount")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, writes, store.Writes())
}

func TestService_SystemEntriesCannotBeEdited(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	x := seedAccount(t, store, "X", "TWD", 1000, 1)
	y := seedAccount(t, store, "Y", "TWD", 0, 1)

	result, err := svc.Transfer(ctx, TransferInput{UserID: userID, FromAccountID: x.ID, ToAccountID: y.ID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	_, err = svc.UpdateEntry(ctx, result.Out.ID, EntryInput{
		UserID: userID, Type: domain.EntryTypeExpense, Amount: decimal.NewFromInt(20),
		Category: "Food", AccountID: &x.ID,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/simaogato/moneyjar/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct{ h *handle }

func (r *accountRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Account, error) {
	var out *domain.Account
	err := r.h.read(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok || a.UserID != userID {
			return domain.NotFound("account", id)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *accountRepository) List(ctx context.Context, userID string) ([]*domain.Account, error) {
	var out []*domain.Account
	err := r.h.read(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if a.UserID == userID {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.h.write(ctx, func(st *state) error {
		if _, exists := st.accounts[account.ID]; exists {
			return fmt.Errorf("account %s already exists", account.ID)
		}
		st.accounts[account.ID] = *account
		return nil
	})
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	return r.h.write(ctx, func(st *state) error {
		existing, ok := st.accounts[account.ID]
		if !ok || existing.UserID != account.UserID {
			return domain.NotFound("account", account.ID)
		}
		st.accounts[account.ID] = *account
		return nil
	})
}

func (r *accountRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok || a.UserID != userID {
			return domain.NotFound("account", id)
		}
		delete(st.accounts, id)
		return nil
	})
}

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct{ h *handle }

func (r *ledgerRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.LedgerEntry, error) {
	var out *domain.LedgerEntry
	err := r.h.read(ctx, func(st *state) error {
		e, ok := st.entries[id]
		if !ok || e.UserID != userID {
			return domain.NotFound("ledger entry", id)
		}
		e = copyEntry(e)
		out = &e
		return nil
	})
	return out, err
}

func (r *ledgerRepository) List(ctx context.Context, userID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	err := r.h.read(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.UserID != userID || !matches(e, filter) {
				continue
			}
			e = copyEntry(e)
			out = append(out, &e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func matches(e domain.LedgerEntry, f domain.LedgerFilter) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Date.Before(f.To) {
		return false
	}
	if f.AccountID != nil && (e.AccountID == nil || *e.AccountID != *f.AccountID) {
		return false
	}
	return true
}

func (r *ledgerRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.h.write(ctx, func(st *state) error {
		if _, exists := st.entries[entry.ID]; exists {
			return fmt.Errorf("ledger entry %s already exists", entry.ID)
		}
		st.entries[entry.ID] = copyEntry(*entry)
		return nil
	})
}

func (r *ledgerRepository) Update(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.h.write(ctx, func(st *state) error {
		existing, ok := st.entries[entry.ID]
		if !ok || existing.UserID != entry.UserID {
			return domain.NotFound("ledger entry", entry.ID)
		}
		st.entries[entry.ID] = copyEntry(*entry)
		return nil
	})
}

func (r *ledgerRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		e, ok := st.entries[id]
		if !ok || e.UserID != userID {
			return domain.NotFound("ledger entry", id)
		}
		delete(st.entries, id)
		return nil
	})
}

func (r *ledgerRepository) DetachAccount(ctx context.Context, userID string, accountID uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		for id, e := range st.entries {
			if e.UserID == userID && e.AccountID != nil && *e.AccountID == accountID {
				e.AccountID = nil
				st.entries[id] = e
			}
		}
		return nil
	})
}

// budgetRepository implements domain.BudgetRepository
type budgetRepository struct{ h *handle }

func (r *budgetRepository) GetByMonth(ctx context.Context, userID string, month domain.Month) (*domain.Budget, error) {
	var out *domain.Budget
	err := r.h.read(ctx, func(st *state) error {
		for _, b := range st.budgets {
			if b.UserID == userID && b.Month == month {
				b := b
				out = &b
				return nil
			}
		}
		return &domain.ReferenceError{Entity: "budget", ID: month.String()}
	})
	return out, err
}

func (r *budgetRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Budget, error) {
	var out *domain.Budget
	err := r.h.read(ctx, func(st *state) error {
		b, ok := st.budgets[id]
		if !ok || b.UserID != userID {
			return domain.NotFound("budget", id)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *budgetRepository) Create(ctx context.Context, budget *domain.Budget) error {
	return r.h.write(ctx, func(st *state) error {
		for _, b := range st.budgets {
			if b.UserID == budget.UserID && b.Month == budget.Month {
				return fmt.Errorf("budget for %s already exists", budget.Month)
			}
		}
		st.budgets[budget.ID] = *budget
		return nil
	})
}

func (r *budgetRepository) Update(ctx context.Context, budget *domain.Budget) error {
	return r.h.write(ctx, func(st *state) error {
		existing, ok := st.budgets[budget.ID]
		if !ok || existing.UserID != budget.UserID {
			return domain.NotFound("budget", budget.ID)
		}
		st.budgets[budget.ID] = *budget
		return nil
	})
}

func (r *budgetRepository) ListCategories(ctx context.Context, budgetID uuid.UUID) ([]*domain.BudgetCategory, error) {
	var out []*domain.BudgetCategory
	err := r.h.read(ctx, func(st *state) error {
		for _, c := range st.categories {
			if c.BudgetID == budgetID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r *budgetRepository) SaveCategory(ctx context.Context, category *domain.BudgetCategory) error {
	return r.h.write(ctx, func(st *state) error {
		st.categories[category.ID] = *category
		return nil
	})
}

func (r *budgetRepository) DeleteCategory(ctx context.Context, budgetID, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok || c.BudgetID != budgetID {
			return domain.NotFound("budget category", id)
		}
		delete(st.categories, id)
		return nil
	})
}

func (r *budgetRepository) ListItems(ctx context.Context, budgetID uuid.UUID) ([]*domain.BudgetItem, error) {
	var out []*domain.BudgetItem
	err := r.h.read(ctx, func(st *state) error {
		for _, it := range st.items {
			if it.BudgetID == budgetID {
				it := it
				out = append(out, &it)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r *budgetRepository) CreateItem(ctx context.Context, item *domain.BudgetItem) error {
	return r.h.write(ctx, func(st *state) error {
		if _, exists := st.items[item.ID]; exists {
			return fmt.Errorf("budget item %s already exists", item.ID)
		}
		st.items[item.ID] = *item
		return nil
	})
}

func (r *budgetRepository) UpdateItem(ctx context.Context, item *domain.BudgetItem) error {
	return r.h.write(ctx, func(st *state) error {
		existing, ok := st.items[item.ID]
		if !ok || existing.BudgetID != item.BudgetID {
			return domain.NotFound("budget item", item.ID)
		}
		st.items[item.ID] = *item
		return nil
	})
}

func (r *budgetRepository) DeleteItem(ctx context.Context, budgetID, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.BudgetID != budgetID {
			return domain.NotFound("budget item", id)
		}
		delete(st.items, id)
		return nil
	})
}

// holdingRepository implements domain.HoldingRepository
type holdingRepository struct{ h *handle }

func (r *holdingRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.InvestmentHolding, error) {
	var out *domain.InvestmentHolding
	err := r.h.read(ctx, func(st *state) error {
		h, ok := st.holdings[id]
		if !ok || h.UserID != userID {
			return domain.NotFound("holding", id)
		}
		h = copyHolding(h)
		out = &h
		return nil
	})
	return out, err
}

func (r *holdingRepository) GetByPosition(ctx context.Context, userID string, brokerAccountID uuid.UUID, ticker string) (*domain.InvestmentHolding, error) {
	var out *domain.InvestmentHolding
	err := r.h.read(ctx, func(st *state) error {
		for _, h := range st.holdings {
			if h.UserID == userID && h.BrokerAccountID == brokerAccountID && h.Ticker == ticker {
				h = copyHolding(h)
				out = &h
				return nil
			}
		}
		return &domain.ReferenceError{Entity: "holding", ID: ticker}
	})
	return out, err
}

func (r *holdingRepository) List(ctx context.Context, userID string) ([]*domain.InvestmentHolding, error) {
	var out []*domain.InvestmentHolding
	err := r.h.read(ctx, func(st *state) error {
		for _, h := range st.holdings {
			if h.UserID == userID {
				h = copyHolding(h)
				out = append(out, &h)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].BrokerAccountID.String() < out[j].BrokerAccountID.String()
	})
	return out, err
}

func (r *holdingRepository) Save(ctx context.Context, holding *domain.InvestmentHolding) error {
	return r.h.write(ctx, func(st *state) error {
		if existing, ok := st.holdings[holding.ID]; ok && existing.UserID != holding.UserID {
			return domain.NotFound("holding", holding.ID)
		}
		st.holdings[holding.ID] = copyHolding(*holding)
		return nil
	})
}

func (r *holdingRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		h, ok := st.holdings[id]
		if !ok || h.UserID != userID {
			return domain.NotFound("holding", id)
		}
		delete(st.holdings, id)
		return nil
	})
}

// transactionRepository implements domain.InvestmentTransactionRepository
type transactionRepository struct{ h *handle }

func (r *transactionRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.InvestmentTransaction, error) {
	var out *domain.InvestmentTransaction
	err := r.h.read(ctx, func(st *state) error {
		t, ok := st.transactions[id]
		if !ok || t.UserID != userID {
			return domain.NotFound("investment transaction", id)
		}
		t = copyTransaction(t)
		out = &t
		return nil
	})
	return out, err
}

func (r *transactionRepository) ListByPosition(ctx context.Context, userID string, brokerAccountID uuid.UUID, ticker string) ([]*domain.InvestmentTransaction, error) {
	var out []*domain.InvestmentTransaction
	err := r.h.read(ctx, func(st *state) error {
		for _, t := range st.transactions {
			if t.UserID == userID && t.BrokerAccountID == brokerAccountID && t.Ticker == ticker {
				t = copyTransaction(t)
				out = append(out, &t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.InvestmentTransaction) error {
	return r.h.write(ctx, func(st *state) error {
		if _, exists := st.transactions[tx.ID]; exists {
			return fmt.Errorf("investment transaction %s already exists", tx.ID)
		}
		st.transactions[tx.ID] = copyTransaction(*tx)
		return nil
	})
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.InvestmentTransaction) error {
	return r.h.write(ctx, func(st *state) error {
		existing, ok := st.transactions[tx.ID]
		if !ok || existing.UserID != tx.UserID {
			return domain.NotFound("investment transaction", tx.ID)
		}
		st.transactions[tx.ID] = copyTransaction(*tx)
		return nil
	})
}

func (r *transactionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		t, ok := st.transactions[id]
		if !ok || t.UserID != userID {
			return domain.NotFound("investment transaction", id)
		}
		delete(st.transactions, id)
		return nil
	})
}

// jarRepository implements domain.SavingsJarRepository
type jarRepository struct{ h *handle }

func (r *jarRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.SavingsJar, error) {
	var out *domain.SavingsJar
	err := r.h.read(ctx, func(st *state) error {
		j, ok := st.jars[id]
		if !ok || j.UserID != userID {
			return domain.NotFound("savings jar", id)
		}
		out = &j
		return nil
	})
	return out, err
}

func (r *jarRepository) List(ctx context.Context, userID string) ([]*domain.SavingsJar, error) {
	var out []*domain.SavingsJar
	err := r.h.read(ctx, func(st *state) error {
		for _, j := range st.jars {
			if j.UserID == userID {
				j := j
				out = append(out, &j)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r *jarRepository) Create(ctx context.Context, jar *domain.SavingsJar) error {
	return r.h.write(ctx, func(st *state) error {
		if _, exists := st.jars[jar.ID]; exists {
			return fmt.Errorf("savings jar %s already exists", jar.ID)
		}
		st.jars[jar.ID] = *jar
		return nil
	})
}

func (r *jarRepository) Update(ctx context.Context, jar *domain.SavingsJar) error {
	return r.h.write(ctx, func(st *state) error {
		existing, ok := st.jars[jar.ID]
		if !ok || existing.UserID != jar.UserID {
			return domain.NotFound("savings jar", jar.ID)
		}
		st.jars[jar.ID] = *jar
		return nil
	})
}

func (r *jarRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		j, ok := st.jars[id]
		if !ok || j.UserID != userID {
			return domain.NotFound("savings jar", id)
		}
		delete(st.jars, id)
		for cid, c := range st.jarCategories {
			if c.JarID == id {
				delete(st.jarCategories, cid)
			}
		}
		return nil
	})
}

func (r *jarRepository) ListCategories(ctx context.Context, jarID uuid.UUID) ([]*domain.SavingsJarCategory, error) {
	var out []*domain.SavingsJarCategory
	err := r.h.read(ctx, func(st *state) error {
		for _, c := range st.jarCategories {
			if c.JarID == jarID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r *jarRepository) SaveCategory(ctx context.Context, category *domain.SavingsJarCategory) error {
	return r.h.write(ctx, func(st *state) error {
		st.jarCategories[category.ID] = *category
		return nil
	})
}

func (r *jarRepository) DeleteCategory(ctx context.Context, jarID, id uuid.UUID) error {
	return r.h.write(ctx, func(st *state) error {
		c, ok := st.jarCategories[id]
		if !ok || c.JarID != jarID {
			return domain.NotFound("savings jar category", id)
		}
		delete(st.jarCategories, id)
		return nil
	})
}

func (r *jarRepository) CreateDeposit(ctx context.Context, deposit *domain.SavingsJarDeposit) error {
	return r.h.write(ctx, func(st *state) error {
		st.deposits[deposit.ID] = copyDeposit(*deposit)
		return nil
	})
}

func (r *jarRepository) ListDeposits(ctx context.Context, jarID uuid.UUID) ([]*domain.SavingsJarDeposit, error) {
	var out []*domain.SavingsJarDeposit
	err := r.h.read(ctx, func(st *state) error {
		for _, d := range st.deposits {
			if d.JarID == jarID {
				d = copyDeposit(d)
				out = append(out, &d)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

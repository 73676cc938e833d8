// Package memory provides an in-process implementation of domain.Store.
// It stores everything in maps, copies values on the way in and out, and is safe
// for concurrent use. Data is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/simaogato/moneyjar/internal/domain"
)

type state struct {
	accounts      map[uuid.UUID]domain.Account
	entries       map[uuid.UUID]domain.LedgerEntry
	budgets       map[uuid.UUID]domain.Budget
	categories    map[uuid.UUID]domain.BudgetCategory
	items         map[uuid.UUID]domain.BudgetItem
	holdings      map[uuid.UUID]domain.InvestmentHolding
	transactions  map[uuid.UUID]domain.InvestmentTransaction
	jars          map[uuid.UUID]domain.SavingsJar
	jarCategories map[uuid.UUID]domain.SavingsJarCategory
	deposits      map[uuid.UUID]domain.SavingsJarDeposit
	writes        int
}

func newState() *state {
	return &state{
		accounts:      make(map[uuid.UUID]domain.Account),
		entries:       make(map[uuid.UUID]domain.LedgerEntry),
		budgets:       make(map[uuid.UUID]domain.Budget),
		categories:    make(map[uuid.UUID]domain.BudgetCategory),
		items:         make(map[uuid.UUID]domain.BudgetItem),
		holdings:      make(map[uuid.UUID]domain.InvestmentHolding),
		transactions:  make(map[uuid.UUID]domain.InvestmentTransaction),
		jars:          make(map[uuid.UUID]domain.SavingsJar),
		jarCategories: make(map[uuid.UUID]domain.SavingsJarCategory),
		deposits:      make(map[uuid.UUID]domain.SavingsJarDeposit),
	}
}

func cloneMap[T any](m map[uuid.UUID]T, copyFn func(T) T) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(m))
	for k, v := range m {
		out[k] = copyFn(v)
	}
	return out
}

func same[T any](v T) T { return v }

func (st *state) clone() *state {
	return &state{
		accounts:      cloneMap(st.accounts, same[domain.Account]),
		entries:       cloneMap(st.entries, copyEntry),
		budgets:       cloneMap(st.budgets, same[domain.Budget]),
		categories:    cloneMap(st.categories, same[domain.BudgetCategory]),
		items:         cloneMap(st.items, same[domain.BudgetItem]),
		holdings:      cloneMap(st.holdings, copyHolding),
		transactions:  cloneMap(st.transactions, copyTransaction),
		jars:          cloneMap(st.jars, same[domain.SavingsJar]),
		jarCategories: cloneMap(st.jarCategories, same[domain.SavingsJarCategory]),
		deposits:      cloneMap(st.deposits, copyDeposit),
		writes:        st.writes,
	}
}

// Store is the in-memory domain.Store
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repos returns repositories that lock the store for every call
func (s *Store) Repos() domain.Repositories {
	return s.repos(true)
}

// InTx holds the store lock while fn runs and restores the previous state if fn fails
func (s *Store) InTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(s.repos(false)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Writes returns the number of successful mutating calls, rolled back ones excluded
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.writes
}

func (s *Store) repos(lock bool) domain.Repositories {
	h := &handle{store: s, lock: lock}
	return domain.Repositories{
		Accounts:     &accountRepository{h},
		Ledger:       &ledgerRepository{h},
		Budgets:      &budgetRepository{h},
		Holdings:     &holdingRepository{h},
		Transactions: &transactionRepository{h},
		Jars:         &jarRepository{h},
	}
}

// handle runs repository calls against the store state, locking unless it is bound to a transaction
type handle struct {
	store *Store
	lock  bool
}

func (h *handle) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.lock {
		h.store.mu.Lock()
		defer h.store.mu.Unlock()
	}
	return fn(h.store.st)
}

func (h *handle) write(ctx context.Context, fn func(st *state) error) error {
	return h.read(ctx, func(st *state) error {
		if err := fn(st); err != nil {
			return err
		}
		st.writes++
		return nil
	})
}

func copyUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyEntry(e domain.LedgerEntry) domain.LedgerEntry {
	e.AccountID = copyUUIDPtr(e.AccountID)
	e.TransferPeerID = copyUUIDPtr(e.TransferPeerID)
	if e.Investment != nil {
		link := *e.Investment
		link.TransactionID = copyUUIDPtr(link.TransactionID)
		e.Investment = &link
	}
	return e
}

func copyHolding(h domain.InvestmentHolding) domain.InvestmentHolding {
	if h.PriceUpdatedAt != nil {
		t := *h.PriceUpdatedAt
		h.PriceUpdatedAt = &t
	}
	return h
}

func copyTransaction(t domain.InvestmentTransaction) domain.InvestmentTransaction {
	t.LedgerEntryID = copyUUIDPtr(t.LedgerEntryID)
	return t
}

func copyDeposit(d domain.SavingsJarDeposit) domain.SavingsJarDeposit {
	d.LedgerEntryID = copyUUIDPtr(d.LedgerEntryID)
	return d
}

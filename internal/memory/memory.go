// Package memory provides an in-memory ledger store. It backs the "memory"
// data backend and the test suites; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"spendtrack/internal/core"
)

type Store struct {
	mu         sync.Mutex
	categories map[string]core.Category
	txns       map[string]core.Transaction
	users      []core.User
	nextUserID int64
}

func New() *Store {
	return &Store{
		categories: make(map[string]core.Category),
		txns:       make(map[string]core.Transaction),
		nextUserID: 1,
	}
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return core.Category{}, core.ErrDuplicateID
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return core.Category{}, core.ErrNotFound
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return false, nil
	}
	delete(s.categories, id)
	// Nullify references; transactions survive category deletion.
	for tid, t := range s.txns {
		if t.CategoryID == id {
			t.CategoryID = ""
			s.txns[tid] = t
		}
	}
	return true, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CategoryExists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.categories[id]
	return ok, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[t.ID]; ok {
		return core.Transaction{}, core.ErrDuplicateID
	}
	s.txns[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.txns[t.ID]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	t.UserID = existing.UserID
	s.txns[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[id]; !ok {
		return false, nil
	}
	delete(s.txns, id)
	return true, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactionsByDate(_ context.Context, d core.Date) ([]core.Transaction, error) {
	return s.collect(func(t core.Transaction) bool {
		return t.Date.String() == d.String()
	}), nil
}

func (s *Store) ListTransactionsByCategory(_ context.Context, categoryID string) ([]core.Transaction, error) {
	return s.collect(func(t core.Transaction) bool {
		return t.CategoryID == categoryID && categoryID != ""
	}), nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	return s.collect(func(core.Transaction) bool { return true }), nil
}

// collect returns matching transactions ordered by date descending with a
// stable id tie-break.
func (s *Store) collect(match func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) GetOrCreateDefaultUser(_ context.Context) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) > 0 {
		return s.users[0], nil
	}
	u := core.User{ID: s.nextUserID, Name: "Default User", Email: "user@example.com"}
	s.nextUserID++
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) TotalForDate(_ context.Context, d core.Date) (core.Money, error) {
	return s.sum(func(t core.Transaction) bool {
		return t.Date.String() == d.String()
	}), nil
}

func (s *Store) TotalForMonth(_ context.Context, year, month int) (core.Money, error) {
	return s.sum(func(t core.Transaction) bool {
		return t.Date.Year() == year && t.Date.Month() == month
	}), nil
}

func (s *Store) TotalForCategory(_ context.Context, categoryID string) (core.Money, error) {
	return s.sum(func(t core.Transaction) bool {
		return t.CategoryID == categoryID && categoryID != ""
	}), nil
}

func (s *Store) TotalForKind(_ context.Context, kind core.TransactionKind) (core.Money, error) {
	return s.sum(func(t core.Transaction) bool {
		return t.Kind == kind
	}), nil
}

func (s *Store) TotalForKindInMonth(_ context.Context, kind core.TransactionKind, year, month int) (core.Money, error) {
	return s.sum(func(t core.Transaction) bool {
		return t.Kind == kind && t.Date.Year() == year && t.Date.Month() == month
	}), nil
}

func (s *Store) sum(match func(core.Transaction) bool) core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cents int64
	for _, t := range s.txns {
		if match(t) {
			cents += t.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

func (s *Store) Counts(_ context.Context) (core.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Counts{
		Users:        int64(len(s.users)),
		Categories:   int64(len(s.categories)),
		Transactions: int64(len(s.txns)),
	}, nil
}

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"spendtrack/internal/core"
)

// Service orchestrates ledger operations: validation, category reference
// checks, default-user provisioning, and event publication after writes.
type Service struct {
	store  Store
	events EventPublisher
}

func NewService(store Store, events EventPublisher) *Service {
	return &Service{
		store:  store,
		events: events,
	}
}

func (s *Service) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"category_id", created.ID,
		"name", created.Name)

	return created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

// DeleteCategory removes a category. Transactions referencing it keep
// existing with an absent category; the store nullifies the reference.
// Returns false without error when the category was already gone.
func (s *Service) DeleteCategory(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	if deleted {
		slog.InfoContext(ctx, "Category deleted", "category_id", id)
	}
	return deleted, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// CreateTransaction validates and persists a transaction. A supplied
// category id must reference an existing category. The owning user is the
// implicit default user, resolved through an explicit store operation so a
// future auth layer can swap the lookup without touching this flow.
func (s *Service) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategoryRef(ctx, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	user, err := s.store.GetOrCreateDefaultUser(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("resolve user: %w", err)
	}
	t.UserID = user.ID

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created.ID,
		"kind", string(created.Kind),
		"amount_cents", created.Amount.Cents,
		"date", created.Date.String())

	s.publishCreated(ctx, created.ID)
	return created, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategoryRef(ctx, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return updated, nil
}

// DeleteTransaction removes a transaction. Returns false without error when
// no such record existed, so callers can treat "already gone" as non-fatal.
func (s *Service) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if deleted {
		slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
		s.publishDeleted(ctx, id)
	}
	return deleted, nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *Service) ListTransactionsByDate(ctx context.Context, d core.Date) ([]core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByDate(ctx, d)
}

func (s *Service) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	return s.store.ListTransactionsByCategory(ctx, categoryID)
}

func (s *Service) TotalForDate(ctx context.Context, d core.Date) (core.Money, error) {
	if err := d.Validate(); err != nil {
		return core.Money{}, err
	}
	return s.store.TotalForDate(ctx, d)
}

func (s *Service) TotalForMonth(ctx context.Context, year, month int) (core.Money, error) {
	if month < 1 || month > 12 || year < 1 {
		return core.Money{}, core.ErrInvalidDate
	}
	return s.store.TotalForMonth(ctx, year, month)
}

func (s *Service) TotalForCategory(ctx context.Context, categoryID string) (core.Money, error) {
	return s.store.TotalForCategory(ctx, categoryID)
}

func (s *Service) TotalForKind(ctx context.Context, kind core.TransactionKind) (core.Money, error) {
	if !kind.Valid() {
		return core.Money{}, core.ErrInvalidKind
	}
	return s.store.TotalForKind(ctx, kind)
}

// NetBalance computes income minus expense over the given period. A zero
// period spans the whole store. The result may be negative.
func (s *Service) NetBalance(ctx context.Context, p core.Period) (core.Balance, error) {
	var (
		income, expense core.Money
		err             error
	)
	if p.IsZero() {
		income, err = s.store.TotalForKind(ctx, core.Income)
		if err == nil {
			expense, err = s.store.TotalForKind(ctx, core.Expense)
		}
	} else {
		if p.Month < 1 || p.Month > 12 || p.Year < 1 {
			return core.Balance{}, core.ErrInvalidDate
		}
		income, err = s.store.TotalForKindInMonth(ctx, core.Income, p.Year, p.Month)
		if err == nil {
			expense, err = s.store.TotalForKindInMonth(ctx, core.Expense, p.Year, p.Month)
		}
	}
	if err != nil {
		return core.Balance{}, fmt.Errorf("net balance: %w", err)
	}
	return core.Balance{
		Income:  income,
		Expense: expense,
		Net:     income.Sub(expense),
	}, nil
}

func (s *Service) Counts(ctx context.Context) (core.Counts, error) {
	return s.store.Counts(ctx)
}

func (s *Service) checkCategoryRef(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	exists, err := s.store.CategoryExists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return core.ErrCategoryRef
	}
	return nil
}

func (s *Service) publishCreated(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionCreated(ctx, id); err != nil {
		// The write already succeeded; the export sweep picks it up later.
		slog.ErrorContext(ctx, "Failed to publish created event",
			"transaction_id", id, "error", err)
	}
}

func (s *Service) publishDeleted(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionDeleted(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deleted event",
			"transaction_id", id, "error", err)
	}
}

package ledger

import (
	"context"

	"spendtrack/internal/core"
)

// Ports implemented by the storage backends.
type (
	CategoryStore interface {
		// CreateCategory persists a new category. Returns
		// core.ErrDuplicateID when the id is already taken, leaving the
		// existing record untouched.
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)

		// UpdateCategory overwrites all mutable fields of an existing
		// category. Returns core.ErrNotFound when the id is absent.
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)

		// DeleteCategory removes a category and nullifies the category
		// reference of every transaction pointing at it. The bool is
		// false when no such category existed; that is not an error.
		DeleteCategory(ctx context.Context, id string) (bool, error)

		// ListCategories returns all categories. No ordering is part of
		// the contract.
		ListCategories(ctx context.Context) ([]core.Category, error)

		CategoryExists(ctx context.Context, id string) (bool, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) (bool, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)

		ListTransactionsByDate(ctx context.Context, d core.Date) ([]core.Transaction, error)
		ListTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error)

		// ListTransactions returns every transaction ordered by date
		// descending with a stable id tie-break.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	UserStore interface {
		// GetOrCreateDefaultUser returns the first user, provisioning
		// one when the store is empty. Single-implicit-user mode; a
		// future auth layer replaces this lookup.
		GetOrCreateDefaultUser(ctx context.Context) (core.User, error)
	}

	// Aggregator computes sums over the transaction store. Empty result
	// sets yield zero cents, never an error. Read-only.
	Aggregator interface {
		TotalForDate(ctx context.Context, d core.Date) (core.Money, error)
		TotalForMonth(ctx context.Context, year, month int) (core.Money, error)
		TotalForCategory(ctx context.Context, categoryID string) (core.Money, error)
		TotalForKind(ctx context.Context, kind core.TransactionKind) (core.Money, error)
		TotalForKindInMonth(ctx context.Context, kind core.TransactionKind, year, month int) (core.Money, error)
	}

	StatusReader interface {
		Counts(ctx context.Context) (core.Counts, error)
	}

	// Store is the full backend surface the service runs on.
	Store interface {
		CategoryStore
		TransactionStore
		UserStore
		Aggregator
		StatusReader
	}

	// EventPublisher receives ledger write events. Publishing is best
	// effort; a failed publish never fails the originating write.
	EventPublisher interface {
		PublishTransactionCreated(ctx context.Context, id string) error
		PublishTransactionDeleted(ctx context.Context, id string) error
	}
)

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"spendtrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreateTransaction(t *testing.T, repo *SQLiteRepository, tx core.Transaction) core.Transaction {
	t.Helper()
	ctx := context.Background()
	user, err := repo.GetOrCreateDefaultUser(ctx)
	if err != nil {
		t.Fatalf("default user: %v", err)
	}
	tx.UserID = user.ID
	created, err := repo.CreateTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("create transaction %s: %v", tx.ID, err)
	}
	return created
}

func TestCategoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := core.Category{ID: "food", Name: "Food", Icon: "cart", Color: "#FF0000"}
	if _, err := repo.CreateCategory(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, c); !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	c.Name = "Groceries"
	if _, err := repo.UpdateCategory(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	cats, err := repo.ListCategories(ctx)
	if err != nil || len(cats) != 1 {
		t.Fatalf("list: %v %v", cats, err)
	}
	if cats[0].Name != "Groceries" || cats[0].Color != "#FF0000" {
		t.Fatalf("unexpected record %+v", cats[0])
	}

	if _, err := repo.UpdateCategory(ctx, core.Category{ID: "ghost", Name: "x"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	deleted, err := repo.DeleteCategory(ctx, "food")
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	deleted, err = repo.DeleteCategory(ctx, "food")
	if err != nil || deleted {
		t.Fatalf("second delete should be false without error: %v %v", deleted, err)
	}
}

func TestDefaultUserIsStable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u1, err := repo.GetOrCreateDefaultUser(ctx)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	u2, err := repo.GetOrCreateDefaultUser(ctx)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if u1.ID != u2.ID {
		t.Fatalf("default user not stable: %d vs %d", u1.ID, u2.ID)
	}
	counts, err := repo.Counts(ctx)
	if err != nil || counts.Users != 1 {
		t.Fatalf("expected one user, got %+v %v", counts, err)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateCategory(ctx, core.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	mustCreateTransaction(t, repo, core.Transaction{
		ID:            "t1",
		Amount:        core.Money{Cents: 4550},
		Date:          core.NewDate(2024, 3, 1),
		Kind:          core.Expense,
		CategoryID:    "food",
		Note:          "lunch",
		PaymentMethod: "card",
	})

	got, err := repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != 4550 || got.Date.String() != "2024-03-01" ||
		got.Kind != core.Expense || got.CategoryID != "food" ||
		got.Note != "lunch" || got.PaymentMethod != "card" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := repo.GetTransaction(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryDeleteSetsNull(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateCategory(ctx, core.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	mustCreateTransaction(t, repo, core.Transaction{
		ID:         "t1",
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2024, 3, 1),
		Kind:       core.Expense,
		CategoryID: "food",
	})

	if _, err := repo.DeleteCategory(ctx, "food"); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CategoryID != "" {
		t.Fatalf("expected nullified reference, got %q", got.CategoryID)
	}
}

func TestAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateCategory(ctx, core.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	mustCreateTransaction(t, repo, core.Transaction{
		ID: "t1", Amount: core.Money{Cents: 4550}, Date: core.NewDate(2024, 3, 1),
		Kind: core.Expense, CategoryID: "food",
	})
	mustCreateTransaction(t, repo, core.Transaction{
		ID: "t2", Amount: core.Money{Cents: 100000}, Date: core.NewDate(2024, 3, 1),
		Kind: core.Income, Source: "salary",
	})
	mustCreateTransaction(t, repo, core.Transaction{
		ID: "t3", Amount: core.Money{Cents: 2000}, Date: core.NewDate(2024, 4, 2),
		Kind: core.Expense,
	})

	cases := []struct {
		name string
		got  func() (core.Money, error)
		want int64
	}{
		{"date", func() (core.Money, error) { return repo.TotalForDate(ctx, core.NewDate(2024, 3, 1)) }, 104550},
		{"empty date", func() (core.Money, error) { return repo.TotalForDate(ctx, core.NewDate(1999, 1, 1)) }, 0},
		{"month", func() (core.Money, error) { return repo.TotalForMonth(ctx, 2024, 3) }, 104550},
		{"category", func() (core.Money, error) { return repo.TotalForCategory(ctx, "food") }, 4550},
		{"kind income", func() (core.Money, error) { return repo.TotalForKind(ctx, core.Income) }, 100000},
		{"kind expense", func() (core.Money, error) { return repo.TotalForKind(ctx, core.Expense) }, 6550},
		{"kind in month", func() (core.Money, error) { return repo.TotalForKindInMonth(ctx, core.Expense, 2024, 3) }, 4550},
	}
	for _, tc := range cases {
		got, err := tc.got()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got.Cents != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got.Cents, tc.want)
		}
	}
}

func TestListOrderingAndFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreateTransaction(t, repo, core.Transaction{
		ID: "a", Amount: core.Money{Cents: 1}, Date: core.NewDate(2024, 1, 15), Kind: core.Expense,
	})
	mustCreateTransaction(t, repo, core.Transaction{
		ID: "b", Amount: core.Money{Cents: 1}, Date: core.NewDate(2024, 3, 1), Kind: core.Expense,
	})
	mustCreateTransaction(t, repo, core.Transaction{
		ID: "c", Amount: core.Money{Cents: 1}, Date: core.NewDate(2024, 3, 1), Kind: core.Income,
	})

	all, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[1].ID != "b" || all[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", all)
	}

	byDate, err := repo.ListTransactionsByDate(ctx, core.NewDate(2024, 3, 1))
	if err != nil || len(byDate) != 2 {
		t.Fatalf("by date: %v %v", byDate, err)
	}
}

func TestExportBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreateTransaction(t, repo, core.Transaction{
		ID: "t1", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 3, 1), Kind: core.Expense,
	})
	mustCreateTransaction(t, repo, core.Transaction{
		ID: "t2", Amount: core.Money{Cents: 200}, Date: core.NewDate(2024, 3, 2), Kind: core.Expense,
	})

	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending: %v %v", pending, err)
	}

	if err := repo.MarkExported(ctx, "t1"); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	pending, err = repo.ListPendingExport(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != "t2" {
		t.Fatalf("pending after mark: %+v %v", pending, err)
	}

	// An update re-queues the row for export.
	tx := pending[0]
	if err := repo.MarkExported(ctx, "t2"); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	tx.Note = "edited"
	if _, err := repo.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, err = repo.ListPendingExport(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != "t2" {
		t.Fatalf("update should re-queue export: %+v %v", pending, err)
	}
}

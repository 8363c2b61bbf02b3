package ledger

import (
	"context"
	"errors"
	"testing"

	"spendtrack/internal/core"
	"spendtrack/internal/memory"
)

func newTestService() *Service {
	return NewService(memory.New(), nil)
}

func TestCreateCategoryDuplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	orig := core.Category{ID: "food", Name: "Food", Color: "#FF0000"}
	if _, err := svc.CreateCategory(ctx, orig); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.CreateCategory(ctx, core.Category{ID: "food", Name: "Other"})
	if !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	// The existing record must be unmodified.
	cats, err := svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Food" || cats[0].Color != "#FF0000" {
		t.Fatalf("existing record modified: %+v", cats)
	}
}

func TestUpdateCategoryNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.UpdateCategory(context.Background(), core.Category{ID: "nope", Name: "Nope"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCategoryReturnsBool(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	deleted, err := svc.DeleteCategory(ctx, "food")
	if err != nil || !deleted {
		t.Fatalf("expected deleted=true, got %v %v", deleted, err)
	}
	deleted, err = svc.DeleteCategory(ctx, "food")
	if err != nil || deleted {
		t.Fatalf("already gone should be deleted=false without error, got %v %v", deleted, err)
	}
}

func TestCreateTransactionBadCategoryRef(t *testing.T) {
	svc := newTestService()
	tx := core.Transaction{
		ID:         "t1",
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2024, 3, 1),
		Kind:       core.Expense,
		CategoryID: "ghost",
	}
	_, err := svc.CreateTransaction(context.Background(), tx)
	if !errors.Is(err, core.ErrCategoryRef) {
		t.Fatalf("expected ErrCategoryRef, got %v", err)
	}
}

func TestCreateTransactionProvisionsDefaultUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, core.Transaction{
		ID:     "t1",
		Amount: core.Money{Cents: 100},
		Date:   core.NewDate(2024, 3, 1),
		Kind:   core.Income,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID == 0 {
		t.Fatalf("expected auto-provisioned user id")
	}

	counts, err := svc.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Users != 1 || counts.Transactions != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestCategoryDeleteNullifiesReferences(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.Category{ID: "food", Name: "Food", Color: "#FF0000"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		ID:         "t1",
		Amount:     core.Money{Cents: 4550},
		Date:       core.NewDate(2024, 3, 1),
		Kind:       core.Expense,
		CategoryID: "food",
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if _, err := svc.DeleteCategory(ctx, "food"); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := svc.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.CategoryID != "" {
		t.Fatalf("expected absent category reference, got %q", got.CategoryID)
	}

	total, err := svc.TotalForCategory(ctx, "food")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cents != 0 {
		t.Fatalf("expected 0 cents for deleted category, got %d", total.Cents)
	}
}

func TestAggregationScenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.Category{ID: "food", Name: "Food", Color: "#FF0000"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		ID:         "t1",
		Amount:     core.Money{Cents: 4550},
		Date:       core.NewDate(2024, 3, 1),
		Kind:       core.Expense,
		CategoryID: "food",
	}); err != nil {
		t.Fatalf("create t1: %v", err)
	}

	total, err := svc.TotalForCategory(ctx, "food")
	if err != nil || total.Cents != 4550 {
		t.Fatalf("total_for_category: got %d, %v", total.Cents, err)
	}

	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		ID:     "t2",
		Amount: core.Money{Cents: 100000},
		Date:   core.NewDate(2024, 3, 1),
		Kind:   core.Income,
		Source: "salary",
	}); err != nil {
		t.Fatalf("create t2: %v", err)
	}

	bal, err := svc.NetBalance(ctx, core.Period{Year: 2024, Month: 3})
	if err != nil {
		t.Fatalf("net balance: %v", err)
	}
	if bal.Net.Cents != 95450 {
		t.Fatalf("net for March 2024: got %s, want 954.50", bal.Net)
	}
}

func TestTypeTotalsPartitionStore(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	amounts := []struct {
		id    string
		cents int64
		kind  core.TransactionKind
	}{
		{"a", 100, core.Income},
		{"b", 250, core.Expense},
		{"c", 999, core.Income},
		{"d", 1, core.Expense},
	}
	var want int64
	for _, a := range amounts {
		tx := core.Transaction{ID: a.id, Amount: core.Money{Cents: a.cents}, Date: core.NewDate(2024, 5, 2), Kind: a.kind}
		if _, err := svc.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create %s: %v", a.id, err)
		}
		want += a.cents
	}

	income, err := svc.TotalForKind(ctx, core.Income)
	if err != nil {
		t.Fatalf("income: %v", err)
	}
	expense, err := svc.TotalForKind(ctx, core.Expense)
	if err != nil {
		t.Fatalf("expense: %v", err)
	}
	if income.Cents+expense.Cents != want {
		t.Fatalf("income+expense = %d, want %d", income.Cents+expense.Cents, want)
	}
}

func TestTotalForEmptyDateIsZero(t *testing.T) {
	svc := newTestService()
	total, err := svc.TotalForDate(context.Background(), core.NewDate(1999, 1, 1))
	if err != nil {
		t.Fatalf("expected no error for empty date, got %v", err)
	}
	if total.Cents != 0 {
		t.Fatalf("expected 0.00, got %s", total)
	}
}

func TestListTransactionsOrderedByDateDesc(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	dates := []core.Date{
		core.NewDate(2024, 1, 15),
		core.NewDate(2024, 3, 1),
		core.NewDate(2023, 12, 31),
	}
	for i, d := range dates {
		tx := core.Transaction{ID: string(rune('a' + i)), Amount: core.Money{Cents: 100}, Date: d, Kind: core.Expense}
		if _, err := svc.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := svc.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Date.After(list[i-1].Date.Time) {
			t.Fatalf("not ordered by date desc: %s before %s", list[i-1].Date, list[i].Date)
		}
	}
}

func TestUpdateTransactionKeepsOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, core.Transaction{
		ID:     "t1",
		Amount: core.Money{Cents: 500},
		Date:   core.NewDate(2024, 2, 2),
		Kind:   core.Expense,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateTransaction(ctx, core.Transaction{
		ID:     "t1",
		Amount: core.Money{Cents: 750},
		Date:   core.NewDate(2024, 2, 3),
		Kind:   core.Expense,
		Note:   "groceries",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UserID != created.UserID {
		t.Fatalf("owner changed on update: %d -> %d", created.UserID, updated.UserID)
	}
	if updated.Amount.Cents != 750 || updated.Note != "groceries" {
		t.Fatalf("fields not overwritten: %+v", updated)
	}
}

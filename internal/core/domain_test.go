package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2024 || d.Month() != 3 || d.Day() != 1 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.String() != "2024-03-01" {
		t.Fatalf("round trip mismatch: %s", d.String())
	}

	for _, bad := range []string{"", "2024-13-01", "01/03/2024", "yesterday"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{ID: "food", Name: "Food", Icon: "cart", Color: "#FF0000"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Icon and color are optional.
	if err := (Category{ID: "misc", Name: "Misc"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Category{
		{ID: "", Name: "Food"},
		{ID: "  ", Name: "Food"},
		{ID: "food", Name: ""},
		{ID: "food", Name: "Food", Color: "red"},
		{ID: "food", Name: "Food", Color: "#GG0000"},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:     "t1",
		Amount: Money{Cents: 4550},
		Date:   NewDate(2024, 3, 1),
		Kind:   Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Zero amounts are allowed.
	good.Amount = Money{Cents: 0}
	if err := good.Validate(); err != nil {
		t.Fatalf("zero amount should validate, got %v", err)
	}

	bads := []Transaction{
		{ID: "", Amount: Money{Cents: 1}, Date: NewDate(2024, 1, 1), Kind: Income},
		{ID: "t", Amount: Money{Cents: -1}, Date: NewDate(2024, 1, 1), Kind: Income},
		{ID: "t", Amount: Money{Cents: 1}, Date: Date{Time: time.Time{}}, Kind: Income},
		{ID: "t", Amount: Money{Cents: 1}, Date: NewDate(2024, 1, 1), Kind: "transfer"},
	}
	for i, tr := range bads {
		if err := tr.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionVariantFields(t *testing.T) {
	// An income record never carries a payment method, and an expense
	// record never carries an income source.
	income := Transaction{ID: "t1", Amount: Money{Cents: 100}, Date: NewDate(2024, 1, 1), Kind: Income, PaymentMethod: "card"}
	if err := income.Validate(); err != ErrVariantField {
		t.Fatalf("expected ErrVariantField, got %v", err)
	}
	expense := Transaction{ID: "t2", Amount: Money{Cents: 100}, Date: NewDate(2024, 1, 1), Kind: Expense, Source: "salary"}
	if err := expense.Validate(); err != ErrVariantField {
		t.Fatalf("expected ErrVariantField, got %v", err)
	}

	ok := Transaction{ID: "t3", Amount: Money{Cents: 100}, Date: NewDate(2024, 1, 1), Kind: Income, Source: "salary"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

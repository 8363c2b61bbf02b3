package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{".5", 50, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"45.50", 4550, true},
		{"1000.00", 100000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1a.00", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("%q: got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{4550, "45.50"},
		{0, "0.00"},
		{5, "0.05"},
		{100000, "1000.00"},
		{-4550, "-45.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("cents %d: got %s, want %s", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	net := Money{Cents: 100000}.Sub(Money{Cents: 4550})
	if net.Cents != 95450 {
		t.Fatalf("got %d", net.Cents)
	}
	if (Money{Cents: 1}).Add(Money{Cents: 2}).Cents != 3 {
		t.Fatalf("add broken")
	}
}

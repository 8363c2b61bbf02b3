package core

// Period restricts an aggregation to a calendar month. The zero value means
// the whole store.
type Period struct {
	Year  int
	Month int // 1-12
}

// IsZero reports whether the period covers the whole store.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Balance is the income/expense breakdown for a period.
type Balance struct {
	Income  Money
	Expense Money
	Net     Money // Income - Expense, may be negative
}

// Counts holds entity counts for the status probe.
type Counts struct {
	Users        int64
	Categories   int64
	Transactions int64
}

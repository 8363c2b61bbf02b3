package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

type (
	// TransactionKind discriminates the two transaction variants. A
	// transaction's type is always this tag; there is no separately
	// settable "type" field.
	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID    string
		Name  string
		Icon  string // optional icon identifier
		Color string // optional hex color, e.g. "#FF0000"
	}

	User struct {
		ID    int64
		Name  string
		Email string
	}

	Transaction struct {
		ID         string
		Amount     Money
		Date       Date
		CategoryID string // optional; empty means no category
		Note       string
		Kind       TransactionKind
		UserID     int64

		// Variant payloads. Source is valid only on income records,
		// PaymentMethod only on expense records.
		Source        string
		PaymentMethod string
	}
)

var (
	ErrMissingID      = errors.New("missing id")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidKind    = errors.New("invalid transaction kind")
	ErrInvalidColor   = errors.New("invalid color code")
	ErrVariantField   = errors.New("field not valid for transaction kind")
	ErrDuplicateID    = errors.New("id already exists")
	ErrNotFound       = errors.New("record not found")
	ErrCategoryRef    = errors.New("referenced category does not exist")
	ErrEmailConflict  = errors.New("email already registered")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

func (k TransactionKind) Valid() bool {
	switch k {
	case Income, Expense:
		return true
	}
	return false
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if c.Color != "" {
		if len(c.Color) != 7 || c.Color[0] != '#' {
			return ErrInvalidColor
		}
		for _, r := range c.Color[1:] {
			if !isHexDigit(r) {
				return ErrInvalidColor
			}
		}
	}
	return nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingID
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	// The variant payloads are mutually exclusive with the kind tag.
	if t.Kind == Income && t.PaymentMethod != "" {
		return ErrVariantField
	}
	if t.Kind == Expense && t.Source != "" {
		return ErrVariantField
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

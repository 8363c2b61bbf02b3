package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendtrack/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the postgres-backed ledger store, selected with
// DATA_BACKEND=postgres. It mirrors the SQLite repository behavior.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{db: pool}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		r.db.Close()
	}
	return nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	exists, err := r.CategoryExists(ctx, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if exists {
		return core.Category{}, core.ErrDuplicateID
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO categories (id, name, icon, color)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name, c.Icon, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to postgres",
		"category_id", c.ID,
		"name", c.Name)

	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE categories SET name = $1, icon = $2, color = $3
		WHERE id = $4
	`, c.Name, c.Icon, c.Color, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if res.RowsAffected() == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) (bool, error) {
	// The ON DELETE SET NULL constraint nullifies transaction references.
	res, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, icon, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM categories WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return true, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM transactions WHERE id = $1`, t.ID).Scan(&one)
	if err == nil {
		return core.Transaction{}, core.ErrDuplicateID
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("check transaction: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO transactions (id, amount_cents, date, category_id, note, kind, source, payment_method, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.Amount.Cents, t.Date.Time, nullableID(t.CategoryID), t.Note, string(t.Kind), t.Source, t.PaymentMethod, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to postgres",
		"transaction_id", t.ID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	existing, err := r.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.UserID = existing.UserID

	res, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET amount_cents = $1, date = $2, category_id = $3, note = $4, kind = $5, source = $6, payment_method = $7, exported_at = NULL
		WHERE id = $8
	`, t.Amount.Cents, t.Date.Time, nullableID(t.CategoryID), t.Note, string(t.Kind), t.Source, t.PaymentMethod, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if res.RowsAffected() == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	return res.RowsAffected() > 0, nil
}

const transactionColumns = `id, amount_cents, date, category_id, note, kind, source, payment_method, user_id`

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactionsByDate(ctx context.Context, d core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE date = $1 ORDER BY date DESC, id DESC`, d.Time)
}

func (r *Repository) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE category_id = $1 ORDER BY date DESC, id DESC`, categoryID)
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, id DESC`)
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t          core.Transaction
		date       time.Time
		categoryID *string
		kind       string
	)
	if err := row.Scan(&t.ID, &t.Amount.Cents, &date, &categoryID, &t.Note, &kind, &t.Source, &t.PaymentMethod, &t.UserID); err != nil {
		return core.Transaction{}, err
	}
	t.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	t.Kind = core.TransactionKind(kind)
	if categoryID != nil {
		t.CategoryID = *categoryID
	}
	return t, nil
}

func (r *Repository) GetOrCreateDefaultUser(ctx context.Context) (core.User, error) {
	var u core.User
	err := r.db.QueryRow(ctx, `SELECT id, name, email FROM users ORDER BY id LIMIT 1`).
		Scan(&u.ID, &u.Name, &u.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, fmt.Errorf("get default user: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO users (name, email) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`, "Default User", "user@example.com").Scan(&u.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("create default user: %w", err)
	}
	u.Name = "Default User"
	u.Email = "user@example.com"

	slog.InfoContext(ctx, "Default user provisioned", "user_id", u.ID)
	return u, nil
}

func (r *Repository) TotalForDate(ctx context.Context, d core.Date) (core.Money, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE date = $1`, d.Time)
}

func (r *Repository) TotalForMonth(ctx context.Context, year, month int) (core.Money, error) {
	from, to := monthBounds(year, month)
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE date >= $1 AND date < $2`, from, to)
}

func (r *Repository) TotalForCategory(ctx context.Context, categoryID string) (core.Money, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE category_id = $1`, categoryID)
}

func (r *Repository) TotalForKind(ctx context.Context, kind core.TransactionKind) (core.Money, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE kind = $1`, string(kind))
}

func (r *Repository) TotalForKindInMonth(ctx context.Context, kind core.TransactionKind, year, month int) (core.Money, error) {
	from, to := monthBounds(year, month)
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE kind = $1 AND date >= $2 AND date < $3`,
		string(kind), from, to)
}

func (r *Repository) sum(ctx context.Context, query string, args ...any) (core.Money, error) {
	var cents int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) Counts(ctx context.Context) (core.Counts, error) {
	var c core.Counts
	row := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM transactions)
	`)
	if err := row.Scan(&c.Users, &c.Categories, &c.Transactions); err != nil {
		return core.Counts{}, fmt.Errorf("count entities: %w", err)
	}
	return c, nil
}

// ListPendingExport returns transactions not yet exported, oldest first.
func (r *Repository) ListPendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE exported_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, int64(limit))
}

// MarkExported records a successful export of a transaction.
func (r *Repository) MarkExported(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE transactions SET exported_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "transaction_id", id)
	return nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func monthBounds(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

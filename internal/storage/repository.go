package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendtrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the default persistent ledger store. It implements the
// full ledger.Store surface plus the export bookkeeping used by the worker.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	exists, err := r.CategoryExists(ctx, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if exists {
		return core.Category{}, core.ErrDuplicateID
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, icon, color)
		VALUES (?, ?, ?, ?)
	`, c.ID, c.Name, c.Icon, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite",
		"category_id", c.ID,
		"name", c.Name)

	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, icon = ?, color = ?
		WHERE id = ?
	`, c.Name, c.Icon, c.Color, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Category{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) (bool, error) {
	// The ON DELETE SET NULL constraint nullifies transaction references.
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon, color FROM categories ORDER BY id`)
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

func (r *SQLiteRepository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM transactions WHERE id = ?`, t.ID).Scan(&one)
	if err == nil {
		return core.Transaction{}, core.ErrDuplicateID
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("check transaction: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount_cents, date, category_id, note, kind, source, payment_method, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Amount.Cents, t.Date.String(), nullableID(t.CategoryID), t.Note, string(t.Kind), t.Source, t.PaymentMethod, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"transaction_id", t.ID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	existing, err := r.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.UserID = existing.UserID

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, date = ?, category_id = ?, note = ?, kind = ?, source = ?, payment_method = ?, exported_at = NULL
		WHERE id = ?
	`, t.Amount.Cents, t.Date.String(), nullableID(t.CategoryID), t.Note, string(t.Kind), t.Source, t.PaymentMethod, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Transaction{}, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

const transactionColumns = `id, amount_cents, date, category_id, note, kind, source, payment_method, user_id`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactionsByDate(ctx context.Context, d core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE date = ? ORDER BY date DESC, id DESC`, d.String())
}

func (r *SQLiteRepository) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE category_id = ? ORDER BY date DESC, id DESC`, categoryID)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, id DESC`)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		dateStr    string
		categoryID sql.NullString
		kind       string
	)
	if err := row.Scan(&t.ID, &t.Amount.Cents, &dateStr, &categoryID, &t.Note, &kind, &t.Source, &t.PaymentMethod, &t.UserID); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	t.Date = d
	t.Kind = core.TransactionKind(kind)
	if categoryID.Valid {
		t.CategoryID = categoryID.String
	}
	return t, nil
}

func (r *SQLiteRepository) GetOrCreateDefaultUser(ctx context.Context) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `SELECT id, name, email FROM users ORDER BY id LIMIT 1`).
		Scan(&u.ID, &u.Name, &u.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get default user: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO users (name, email) VALUES (?, ?)`,
		"Default User", "user@example.com")
	if err != nil {
		return core.User{}, fmt.Errorf("create default user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Default user provisioned", "user_id", id)
	return core.User{ID: id, Name: "Default User", Email: "user@example.com"}, nil
}

func (r *SQLiteRepository) TotalForDate(ctx context.Context, d core.Date) (core.Money, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE date = ?`, d.String())
}

func (r *SQLiteRepository) TotalForMonth(ctx context.Context, year, month int) (core.Money, error) {
	from, to := monthBounds(year, month)
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE date >= ? AND date < ?`, from, to)
}

func (r *SQLiteRepository) TotalForCategory(ctx context.Context, categoryID string) (core.Money, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE category_id = ?`, categoryID)
}

func (r *SQLiteRepository) TotalForKind(ctx context.Context, kind core.TransactionKind) (core.Money, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE kind = ?`, string(kind))
}

func (r *SQLiteRepository) TotalForKindInMonth(ctx context.Context, kind core.TransactionKind, year, month int) (core.Money, error) {
	from, to := monthBounds(year, month)
	return r.sum(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE kind = ? AND date >= ? AND date < ?`,
		string(kind), from, to)
}

func (r *SQLiteRepository) sum(ctx context.Context, query string, args ...any) (core.Money, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) Counts(ctx context.Context) (core.Counts, error) {
	var c core.Counts
	row := r.db.QueryRowContext(ctx, `
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
// Backup path for the export worker when AMQP messages are lost.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE exported_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?
	`, int64(limit))
}

// MarkExported records a successful export of a transaction.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET exported_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "transaction_id", id)
	return nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func monthBounds(year, month int) (string, string) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from.Format("2006-01-02"), from.AddDate(0, 1, 0).Format("2006-01-02")
}

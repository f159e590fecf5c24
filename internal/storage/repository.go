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

	"github.com/shopspring/decimal"

	"finwise/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNoCurrentUser guards writes that need an owning user. Reads with no
	// session return empty results instead (an unauthenticated read is a
	// normal condition, e.g. during logout).
	ErrNoCurrentUser = errors.New("no user logged in")

	ErrUserNotFound = errors.New("user not found")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
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

// ==================== users ====================

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (core.User, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, now.UnixMilli())
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "email", email)
	return core.User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, password, created_at FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, password, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt)
	return u, nil
}

// ==================== session ====================

// SaveSession records the single active session, replacing any previous one.
func (r *SQLiteRepository) SaveSession(ctx context.Context, userID int64, token string) error {
	if userID <= 0 {
		return ErrNoCurrentUser
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session (id, user_id, token, created_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id,
		                               token = excluded.token,
		                               created_at = excluded.created_at`,
		userID, token, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// CurrentUserID returns the logged-in user's id, or 0 when nobody is.
func (r *SQLiteRepository) CurrentUserID(ctx context.Context) (int64, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM session WHERE id = 1`).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read session: %w", err)
	}
	return userID, nil
}

func (r *SQLiteRepository) ClearSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ==================== categories ====================

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, color, icon, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var (
			c           core.Category
			color, icon sql.NullString
			createdAt   int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &color, &icon, &createdAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Color = color.String
		c.Icon = icon.String
		c.CreatedAt = time.UnixMilli(createdAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ==================== transactions ====================

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if t.UserID <= 0 {
		return 0, ErrNoCurrentUser
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount, type, category_id, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Amount.InexactFloat64(), string(t.Type), t.CategoryID,
		t.Description, t.Date.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", id,
		"user_id", t.UserID,
		"type", t.Type,
		"amount", t.Amount)
	return id, nil
}

// ListTransactions returns the user's transactions newest-recorded first.
// A missing session (userID <= 0) yields an empty list, not an error.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	if userID <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, type, category_id, description, date, created_at
		 FROM transactions WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error) {
	if userID <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, type, category_id, description, date, created_at
		 FROM transactions WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date DESC`,
		userID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list transactions by range: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) TransactionCount(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, nil
	}
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var transactions []core.Transaction
	for rows.Next() {
		var (
			t               core.Transaction
			amount          float64
			desc            sql.NullString
			date, createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &amount, &t.Type, &t.CategoryID, &desc, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = decimal.NewFromFloat(amount)
		t.Description = desc.String
		t.Date = time.UnixMilli(date)
		t.CreatedAt = time.UnixMilli(createdAt)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ==================== debts ====================

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (int64, error) {
	if d.UserID <= 0 {
		return 0, ErrNoCurrentUser
	}
	var payDate sql.NullInt64
	if d.PayDate != nil {
		payDate = sql.NullInt64{Int64: d.PayDate.UnixMilli(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (user_id, person_name, amount, debt_type, due_date, pay_date, description, is_paid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UserID, d.PersonName, d.Amount.InexactFloat64(), string(d.Direction),
		d.DueDate.UnixMilli(), payDate, d.Description, boolToInt(d.Paid), time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("debt insert id: %w", err)
	}

	slog.InfoContext(ctx, "Debt saved",
		"debt_id", id,
		"user_id", d.UserID,
		"person", d.PersonName,
		"amount", d.Amount,
		"paid", d.Paid)
	return id, nil
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, userID, debtID int64) (core.Debt, error) {
	if userID <= 0 {
		return core.Debt{}, ErrNoCurrentUser
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, person_name, amount, debt_type, due_date, pay_date, description, is_paid, created_at
		 FROM debts WHERE id = ? AND user_id = ?`, debtID, userID)
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	defer rows.Close()

	debts, err := scanDebts(rows)
	if err != nil {
		return core.Debt{}, err
	}
	if len(debts) == 0 {
		return core.Debt{}, sql.ErrNoRows
	}
	return debts[0], nil
}

// ListDebts returns the user's debts newest-recorded first; empty when no
// session.
func (r *SQLiteRepository) ListDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	if userID <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, person_name, amount, debt_type, due_date, pay_date, description, is_paid, created_at
		 FROM debts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()
	return scanDebts(rows)
}

// UpdateDebt rewrites all mutable fields, scoped by id and owning user, and
// reports how many rows were affected. Zero means the debt does not exist (or
// belongs to someone else) and the caller must treat the update as failed.
func (r *SQLiteRepository) UpdateDebt(ctx context.Context, d core.Debt) (int64, error) {
	if d.UserID <= 0 {
		return 0, ErrNoCurrentUser
	}
	var payDate sql.NullInt64
	if d.PayDate != nil {
		payDate = sql.NullInt64{Int64: d.PayDate.UnixMilli(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE debts SET person_name = ?, amount = ?, debt_type = ?, due_date = ?,
		                  pay_date = ?, description = ?, is_paid = ?
		 WHERE id = ? AND user_id = ?`,
		d.PersonName, d.Amount.InexactFloat64(), string(d.Direction), d.DueDate.UnixMilli(),
		payDate, d.Description, boolToInt(d.Paid), d.ID, d.UserID)
	if err != nil {
		return 0, fmt.Errorf("update debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("debt rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Debt updated", "debt_id", d.ID, "user_id", d.UserID, "rows", n)
	return n, nil
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, userID, debtID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrNoCurrentUser
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM debts WHERE id = ? AND user_id = ?`, debtID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("debt rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DebtCount(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, nil
	}
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM debts WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count debts: %w", err)
	}
	return n, nil
}

func scanDebts(rows *sql.Rows) ([]core.Debt, error) {
	var debts []core.Debt
	for rows.Next() {
		var (
			d                  core.Debt
			amount             float64
			payDate            sql.NullInt64
			desc               sql.NullString
			isPaid             int64
			dueDate, createdAt int64
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.PersonName, &amount, &d.Direction,
			&dueDate, &payDate, &desc, &isPaid, &createdAt); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		d.Amount = decimal.NewFromFloat(amount)
		d.DueDate = time.UnixMilli(dueDate)
		if payDate.Valid {
			pd := time.UnixMilli(payDate.Int64)
			d.PayDate = &pd
		}
		d.Description = desc.String
		d.Paid = isPaid == 1
		d.CreatedAt = time.UnixMilli(createdAt)
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// ==================== cleanup ====================

// ClearUserData removes the user's transactions and debts in one transaction,
// so a failure never leaves a half-cleared ledger. The user row and the seeded
// categories stay.
func (r *SQLiteRepository) ClearUserData(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrNoCurrentUser
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM debts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear debts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}

	slog.InfoContext(ctx, "User data cleared", "user_id", userID)
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

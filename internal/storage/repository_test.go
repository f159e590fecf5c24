package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finwise/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finwise.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *SQLiteRepository) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), "user@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestMigrationsSeedDefaultCategories(t *testing.T) {
	repo := newTestRepo(t)

	categories, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != 8 {
		t.Fatalf("got %d seeded categories, want 8", len(categories))
	}

	income := 0
	for _, c := range categories {
		if c.Type == core.Income {
			income++
		}
	}
	if income != 2 {
		t.Errorf("got %d income categories, want 2", income)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, repo)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	id, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:      user.ID,
		Amount:      decimal.RequireFromString("42.50"),
		Type:        core.Expense,
		CategoryID:  3,
		Description: "groceries",
		Date:        date,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if id <= 0 {
		t.Fatalf("CreateTransaction() id = %d, want positive", id)
	}

	got, err := repo.ListTransactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d transactions, want 1", len(got))
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("Amount = %s, want 42.5", got[0].Amount)
	}
	if got[0].Date.UnixMilli() != date.UnixMilli() {
		t.Errorf("Date = %v, want %v", got[0].Date, date)
	}
}

func TestListTransactionsNoSessionIsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.ListTransactions(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListTransactions(0) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d transactions for missing session, want 0", len(got))
	}
}

func TestCreateTransactionRequiresUser(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Amount: decimal.NewFromInt(10),
		Type:   core.Income,
		Date:   time.Now(),
	})
	if err != ErrNoCurrentUser {
		t.Errorf("CreateTransaction() error = %v, want ErrNoCurrentUser", err)
	}
}

func TestDebtUpdateScopedByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, repo)

	id, err := repo.CreateDebt(ctx, core.Debt{
		UserID:     user.ID,
		PersonName: "Alice",
		Amount:     decimal.NewFromInt(300),
		Direction:  core.OwedByMe,
		DueDate:    time.Now().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}

	debt, err := repo.GetDebt(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("GetDebt() error = %v", err)
	}

	// Update under the wrong owner affects nothing.
	debt.UserID = user.ID + 99
	n, err := repo.UpdateDebt(ctx, debt)
	if err != nil {
		t.Fatalf("UpdateDebt() error = %v", err)
	}
	if n != 0 {
		t.Errorf("UpdateDebt() rows = %d under wrong owner, want 0", n)
	}

	// Correct owner updates one row.
	debt.UserID = user.ID
	payDate := time.Now()
	debt.Paid = true
	debt.PayDate = &payDate
	n, err = repo.UpdateDebt(ctx, debt)
	if err != nil {
		t.Fatalf("UpdateDebt() error = %v", err)
	}
	if n != 1 {
		t.Errorf("UpdateDebt() rows = %d, want 1", n)
	}

	got, err := repo.GetDebt(ctx, user.ID, id)
	if err != nil {
		t.Fatalf("GetDebt() after update error = %v", err)
	}
	if !got.Paid || got.PayDate == nil {
		t.Errorf("debt after update: paid=%v payDate=%v, want paid with a pay date", got.Paid, got.PayDate)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, repo)

	id, err := repo.CurrentUserID(ctx)
	if err != nil {
		t.Fatalf("CurrentUserID() error = %v", err)
	}
	if id != 0 {
		t.Fatalf("CurrentUserID() = %d before login, want 0", id)
	}

	if err := repo.SaveSession(ctx, user.ID, "token-1"); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	// A second login replaces the single session row.
	if err := repo.SaveSession(ctx, user.ID, "token-2"); err != nil {
		t.Fatalf("SaveSession() replace error = %v", err)
	}

	id, err = repo.CurrentUserID(ctx)
	if err != nil {
		t.Fatalf("CurrentUserID() error = %v", err)
	}
	if id != user.ID {
		t.Errorf("CurrentUserID() = %d, want %d", id, user.ID)
	}

	if err := repo.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	id, _ = repo.CurrentUserID(ctx)
	if id != 0 {
		t.Errorf("CurrentUserID() = %d after logout, want 0", id)
	}
}

func TestClearUserData(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, repo)

	_, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: user.ID, Amount: decimal.NewFromInt(10), Type: core.Income, Date: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	_, err = repo.CreateDebt(ctx, core.Debt{
		UserID: user.ID, PersonName: "Bob", Amount: decimal.NewFromInt(5),
		Direction: core.OwedToMe, DueDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}

	// A failed clear must leave the ledger intact, both tables or neither.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := repo.ClearUserData(cancelled, user.ID); err == nil {
		t.Fatal("ClearUserData() with cancelled context: want error")
	}
	tc, _ := repo.TransactionCount(ctx, user.ID)
	dc, _ := repo.DebtCount(ctx, user.ID)
	if tc != 1 || dc != 1 {
		t.Errorf("after failed clear: %d transactions, %d debts, want 1/1", tc, dc)
	}

	if err := repo.ClearUserData(ctx, user.ID); err != nil {
		t.Fatalf("ClearUserData() error = %v", err)
	}

	tc, _ = repo.TransactionCount(ctx, user.ID)
	dc, _ = repo.DebtCount(ctx, user.ID)
	if tc != 0 || dc != 0 {
		t.Errorf("after clear: %d transactions, %d debts, want 0/0", tc, dc)
	}

	// The user row survives bulk clearance.
	if _, err := repo.UserByID(ctx, user.ID); err != nil {
		t.Errorf("UserByID() after clear error = %v", err)
	}
}

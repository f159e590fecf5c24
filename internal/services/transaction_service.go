package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finwise/internal/core"
)

// TransactionStore is the slice of the ledger store the transaction service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	ListTransactionsByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	ClearUserData(ctx context.Context, userID int64) error
}

// TransactionService records ledger entries. Transactions are append-only;
// there is no update or single delete, only bulk clearance.
type TransactionService struct {
	store TransactionStore
}

func NewTransactionService(store TransactionStore) *TransactionService {
	return &TransactionService{store: store}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID, "user_id", t.UserID, "type", t.Type)
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// ListByMonth returns the transactions dated within one calendar month.
func (s *TransactionService) ListByMonth(ctx context.Context, userID int64, year int, month time.Month) ([]core.Transaction, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return s.store.ListTransactionsByDateRange(ctx, userID, start, end)
}

func (s *TransactionService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// ClearData removes every transaction and debt belonging to the user. The
// account itself and the seeded categories survive.
func (s *TransactionService) ClearData(ctx context.Context, userID int64) error {
	if err := s.store.ClearUserData(ctx, userID); err != nil {
		return fmt.Errorf("clear user data: %w", err)
	}
	slog.InfoContext(ctx, "User data cleared", "user_id", userID)
	return nil
}

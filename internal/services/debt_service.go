// Package services holds the application services that sit between the HTTP
// layer and the ledger store.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finwise/internal/core"
)

// defaultDueWindow is applied when a new debt has no due date.
const defaultDueWindow = 7 * 24 * time.Hour

var ErrDebtNotFound = errors.New("debt not found")

// DebtStore is the slice of the ledger store the debt lifecycle needs.
type DebtStore interface {
	CreateDebt(ctx context.Context, d core.Debt) (int64, error)
	GetDebt(ctx context.Context, userID, debtID int64) (core.Debt, error)
	ListDebts(ctx context.Context, userID int64) ([]core.Debt, error)
	UpdateDebt(ctx context.Context, d core.Debt) (int64, error)
	DeleteDebt(ctx context.Context, userID, debtID int64) (int64, error)
}

// Notifier schedules and cancels payment reminders. Implementations must
// tolerate being called for past dates.
type Notifier interface {
	ScheduleReminder(ctx context.Context, d core.Debt) error
	CancelReminder(ctx context.Context, userID, debtID int64) error
}

// CalendarWriter mirrors debt due dates into an external calendar.
type CalendarWriter interface {
	AddDueDateEvent(ctx context.Context, d core.Debt) error
}

// DebtService owns the paid/unpaid lifecycle. Reminder and calendar side
// effects are best effort: their failures are logged, never surfaced, and
// never roll back the store write.
type DebtService struct {
	store    DebtStore
	notifier Notifier
	calendar CalendarWriter
	now      func() time.Time
}

func NewDebtService(store DebtStore, notifier Notifier, calendar CalendarWriter) *DebtService {
	return &DebtService{
		store:    store,
		notifier: notifier,
		calendar: calendar,
		now:      time.Now,
	}
}

// Create validates and stores a new debt. A zero due date defaults to one week
// out. Supplying a pay date at creation records the debt as already paid and
// schedules the payment reminder for that date.
func (s *DebtService) Create(ctx context.Context, d core.Debt) (core.Debt, error) {
	if d.DueDate.IsZero() {
		d.DueDate = s.now().Add(defaultDueWindow)
	}
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}

	d.Paid = d.PayDate != nil

	id, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	d.ID = id

	if d.Paid {
		s.scheduleReminder(ctx, d)
	}
	if s.calendar != nil {
		if err := s.calendar.AddDueDateEvent(ctx, d); err != nil {
			slog.WarnContext(ctx, "Failed to add calendar event", "debt_id", d.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Debt created",
		"debt_id", d.ID, "user_id", d.UserID, "direction", d.Direction, "paid", d.Paid)
	return d, nil
}

func (s *DebtService) Get(ctx context.Context, userID, debtID int64) (core.Debt, error) {
	d, err := s.store.GetDebt(ctx, userID, debtID)
	if err != nil {
		return core.Debt{}, ErrDebtNotFound
	}
	return d, nil
}

func (s *DebtService) List(ctx context.Context, userID int64) ([]core.Debt, error) {
	return s.store.ListDebts(ctx, userID)
}

// MarkPaid records payment of a debt. A zero payDate defaults to now. The
// payment reminder is scheduled for the pay date only after the store confirms
// the update; a past pay date makes it a no-op downstream.
func (s *DebtService) MarkPaid(ctx context.Context, userID, debtID int64, payDate time.Time) (core.Debt, error) {
	d, err := s.store.GetDebt(ctx, userID, debtID)
	if err != nil {
		return core.Debt{}, ErrDebtNotFound
	}

	if payDate.IsZero() {
		payDate = s.now()
	}
	d.Paid = true
	d.PayDate = &payDate

	n, err := s.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("mark debt paid: %w", err)
	}
	if n == 0 {
		return core.Debt{}, ErrDebtNotFound
	}

	s.scheduleReminder(ctx, d)

	slog.InfoContext(ctx, "Debt marked paid", "debt_id", debtID, "user_id", userID)
	return d, nil
}

// MarkUnpaid reverts a debt to unpaid, clearing its pay date and cancelling
// the payment reminder that was scheduled for it.
func (s *DebtService) MarkUnpaid(ctx context.Context, userID, debtID int64) (core.Debt, error) {
	d, err := s.store.GetDebt(ctx, userID, debtID)
	if err != nil {
		return core.Debt{}, ErrDebtNotFound
	}

	d.Paid = false
	d.PayDate = nil

	n, err := s.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("mark debt unpaid: %w", err)
	}
	if n == 0 {
		return core.Debt{}, ErrDebtNotFound
	}

	if s.notifier != nil {
		if err := s.notifier.CancelReminder(ctx, userID, debtID); err != nil {
			slog.WarnContext(ctx, "Failed to cancel reminder", "debt_id", debtID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Debt marked unpaid", "debt_id", debtID, "user_id", userID)
	return d, nil
}

// Update replaces the editable fields of a debt. The paid flag and pay date
// only change through MarkPaid and MarkUnpaid.
func (s *DebtService) Update(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}

	current, err := s.store.GetDebt(ctx, d.UserID, d.ID)
	if err != nil {
		return core.Debt{}, ErrDebtNotFound
	}
	d.Paid = current.Paid
	d.PayDate = current.PayDate

	n, err := s.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	if n == 0 {
		return core.Debt{}, ErrDebtNotFound
	}
	return d, nil
}

func (s *DebtService) Delete(ctx context.Context, userID, debtID int64) error {
	n, err := s.store.DeleteDebt(ctx, userID, debtID)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	if n == 0 {
		return ErrDebtNotFound
	}

	if s.notifier != nil {
		if err := s.notifier.CancelReminder(ctx, userID, debtID); err != nil {
			slog.WarnContext(ctx, "Failed to cancel reminder", "debt_id", debtID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Debt deleted", "debt_id", debtID, "user_id", userID)
	return nil
}

func (s *DebtService) scheduleReminder(ctx context.Context, d core.Debt) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ScheduleReminder(ctx, d); err != nil {
		slog.WarnContext(ctx, "Failed to schedule reminder", "debt_id", d.ID, "error", err)
	}
}

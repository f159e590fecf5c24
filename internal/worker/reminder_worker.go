// Package worker runs the background side of payment reminders: it consumes
// schedule/cancel messages and fires the due ones on a ticker.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finwise/internal/notify"
)

// pendingReminder is a reminder accepted from the queue but not yet fired.
type pendingReminder struct {
	userID     int64
	personName string
	amount     string
	fireAt     time.Time
}

// ReminderWorker holds the pending reminder set in memory. The queue is
// durable, so a restart replays unacknowledged messages and rebuilds the set.
type ReminderWorker struct {
	mu      sync.Mutex
	pending map[int64]pendingReminder // keyed by debt id
	now     func() time.Time
}

func NewReminderWorker() *ReminderWorker {
	return &ReminderWorker{
		pending: make(map[int64]pendingReminder),
		now:     time.Now,
	}
}

// HandleMessage applies one schedule or cancel message to the pending set.
func (w *ReminderWorker) HandleMessage(msg *notify.ReminderMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch msg.Action {
	case notify.ActionSchedule:
		w.pending[msg.DebtID] = pendingReminder{
			userID:     msg.UserID,
			personName: msg.PersonName,
			amount:     msg.Amount,
			fireAt:     msg.FireAt,
		}
	case notify.ActionCancel:
		delete(w.pending, msg.DebtID)
	default:
		return fmt.Errorf("unknown reminder action %q", msg.Action)
	}
	return nil
}

// FireDue emits a payment-due notification for every pending reminder whose
// time has come and removes it from the set. Returns how many fired.
func (w *ReminderWorker) FireDue(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	fired := 0
	for debtID, r := range w.pending {
		if r.fireAt.After(now) {
			continue
		}
		slog.InfoContext(ctx, "Payment reminder due",
			"debt_id", debtID,
			"user_id", r.userID,
			"person", r.personName,
			"amount", r.amount)
		delete(w.pending, debtID)
		fired++
	}
	return fired
}

// PendingCount reports the size of the pending set.
func (w *ReminderWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Run checks for due reminders on every tick until the context is done.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Reminder worker started", "poll_interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.FireDue(ctx)
		}
	}
}

package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aggregation functions are pure: they take point-in-time snapshots of a user's
// ledger (already filtered to that user by the store) plus an injectable "now",
// and return a fresh result on every call. They hold no state and never touch
// the store themselves.

const upcomingDebtWindow = 7 * 24 * time.Hour

// safeToSpendBuffer is the fixed 20% of balance reserved for essentials.
var safeToSpendBuffer = decimal.NewFromFloat(0.20)

var (
	daysPerWeek = decimal.NewFromInt(7)
	// Averaging always divides by a fixed 30 regardless of how many days have
	// data, so sparse histories under-estimate averages. Known approximation.
	averagingDays = decimal.NewFromInt(30)
)

// ComputeBalance sums the transaction ledger (income positive, expense
// negative) and adjusts for unpaid debts: money owed to the user counts
// toward the balance, money the user owes counts against it. Paid debts
// contribute nothing; settling a debt never creates a transaction, the two
// ledgers stay disjoint. The result may be negative.
func ComputeBalance(transactions []Transaction, debts []Debt, now time.Time) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range transactions {
		if t.Type == Income {
			balance = balance.Add(t.Amount)
		} else {
			balance = balance.Sub(t.Amount)
		}
	}
	for _, d := range debts {
		if d.Paid {
			continue
		}
		if d.Direction == OwedToMe {
			balance = balance.Add(d.Amount)
		} else {
			balance = balance.Sub(d.Amount)
		}
	}
	return balance
}

// ComputeSafeToSpend returns an average daily discretionary-spend figure:
// balance minus a 20% buffer minus debts the user owes that come due within
// the next 7 days (overdue ones included), divided over 7 days. Floored at
// zero both before and after the subtraction; never advises negative spending.
func ComputeSafeToSpend(transactions []Transaction, debts []Debt, now time.Time) decimal.Decimal {
	balance := ComputeBalance(transactions, debts, now)
	if !balance.IsPositive() {
		return decimal.Zero
	}

	cutoff := now.Add(upcomingDebtWindow)
	upcoming := decimal.Zero
	for _, d := range debts {
		if !d.Paid && d.Direction == OwedByMe && !d.DueDate.After(cutoff) {
			upcoming = upcoming.Add(d.Amount)
		}
	}

	buffer := balance.Mul(safeToSpendBuffer)
	available := balance.Sub(buffer).Sub(upcoming)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available.Div(daysPerWeek)
}

// ComputeMonthlyNet sums income minus expenses for transactions whose
// occurrence date falls in the same calendar month and year as now. Debts do
// not contribute.
func ComputeMonthlyNet(transactions []Transaction, now time.Time) decimal.Decimal {
	net := decimal.Zero
	for _, t := range transactions {
		if t.Date.Year() != now.Year() || t.Date.Month() != now.Month() {
			continue
		}
		if t.Type == Income {
			net = net.Add(t.Amount)
		} else {
			net = net.Sub(t.Amount)
		}
	}
	return net
}

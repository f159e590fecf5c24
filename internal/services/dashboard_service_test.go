package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwise/internal/core"
)

type fakeDashboardStore struct {
	transactions []core.Transaction
	debts        []core.Debt
	listCalls    int
}

func (f *fakeDashboardStore) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	f.listCalls++
	var out []core.Transaction
	for _, t := range f.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDashboardStore) ListDebts(_ context.Context, userID int64) ([]core.Debt, error) {
	var out []core.Debt
	for _, d := range f.debts {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestMetricsWithoutSessionAreNeutral(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := NewDashboardService(store, time.Minute)

	m, err := svc.Metrics(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, m.Balance.IsZero())
	assert.True(t, m.SafeToSpendDaily.IsZero())
	assert.True(t, m.MonthlyNet.IsZero())
	assert.Zero(t, store.listCalls, "no session must not hit the store")
}

func TestMetricsCombineLedgers(t *testing.T) {
	now := time.Now()
	store := &fakeDashboardStore{
		transactions: []core.Transaction{
			{UserID: 1, Amount: decimal.NewFromInt(1000), Type: core.Income, Date: now},
			{UserID: 1, Amount: decimal.NewFromInt(300), Type: core.Expense, Date: now},
			{UserID: 2, Amount: decimal.NewFromInt(9999), Type: core.Income, Date: now},
		},
		debts: []core.Debt{
			{UserID: 1, Amount: decimal.NewFromInt(100), Direction: core.OwedByMe, DueDate: now.Add(time.Hour)},
		},
	}
	svc := NewDashboardService(store, time.Minute)

	m, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	// 1000 - 300 - 100 unpaid owed by me; the other user's ledger is invisible.
	assert.True(t, m.Balance.Equal(decimal.NewFromInt(600)), "Balance = %s", m.Balance)
	assert.True(t, m.MonthlyNet.Equal(decimal.NewFromInt(700)), "MonthlyNet = %s", m.MonthlyNet)
}

func TestMetricsCachedUntilInvalidated(t *testing.T) {
	now := time.Now()
	store := &fakeDashboardStore{
		transactions: []core.Transaction{
			{UserID: 1, Amount: decimal.NewFromInt(500), Type: core.Income, Date: now},
		},
	}
	svc := NewDashboardService(store, time.Minute)
	ctx := context.Background()

	_, err := svc.Metrics(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Metrics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls, "second read must come from cache")

	svc.InvalidateUser(1)
	_, err = svc.Metrics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "invalidation must force a recompute")
}

func TestForecastIgnoresDebts(t *testing.T) {
	now := time.Now()
	store := &fakeDashboardStore{
		transactions: []core.Transaction{
			{UserID: 1, Amount: decimal.NewFromInt(3000), Type: core.Income, Date: now.Add(-24 * time.Hour)},
		},
		debts: []core.Debt{
			{UserID: 1, Amount: decimal.NewFromInt(500), Direction: core.OwedByMe, DueDate: now.Add(time.Hour)},
		},
	}
	svc := NewDashboardService(store, time.Minute)

	r, err := svc.Forecast(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, r.Forecast.CurrentBalance.Equal(decimal.NewFromInt(3000)),
		"forecast balance must exclude debts, got %s", r.Forecast.CurrentBalance)
	assert.Equal(t, core.InsightStrongSavings, r.Insight)
	assert.Contains(t, r.Message, "save $")
}

func TestForecastWithoutSession(t *testing.T) {
	svc := NewDashboardService(&fakeDashboardStore{}, time.Minute)

	r, err := svc.Forecast(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, r.Forecast.ProjectedBalance.IsZero())
	assert.Equal(t, core.InsightBreakingEven, r.Insight)
}

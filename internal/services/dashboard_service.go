package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finwise/internal/cache"
	"finwise/internal/core"
)

// DashboardMetrics is the derived snapshot shown on the dashboard.
type DashboardMetrics struct {
	Balance          decimal.Decimal
	SafeToSpendDaily decimal.Decimal
	MonthlyNet       decimal.Decimal
}

// ForecastResult pairs the weekly projection with its selected insight.
type ForecastResult struct {
	Forecast core.SevenDayForecast
	Insight  core.InsightLevel
	Message  string
}

// DashboardStore is the slice of the ledger store the dashboard reads from.
type DashboardStore interface {
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	ListDebts(ctx context.Context, userID int64) ([]core.Debt, error)
}

// DashboardService computes derived metrics on demand. Results are cached per
// user for a short TTL; writes elsewhere invalidate through InvalidateUser.
type DashboardService struct {
	store        DashboardStore
	metricsCache *cache.UserCache[DashboardMetrics]
	now          func() time.Time
}

func NewDashboardService(store DashboardStore, ttl time.Duration) *DashboardService {
	return &DashboardService{
		store:        store,
		metricsCache: cache.New[DashboardMetrics](128, ttl),
		now:          time.Now,
	}
}

// Metrics recomputes balance, safe-to-spend and monthly net from the full
// ledger. A missing session (userID <= 0) yields all-zero metrics.
func (s *DashboardService) Metrics(ctx context.Context, userID int64) (DashboardMetrics, error) {
	if userID <= 0 {
		return DashboardMetrics{
			Balance:          decimal.Zero,
			SafeToSpendDaily: decimal.Zero,
			MonthlyNet:       decimal.Zero,
		}, nil
	}

	if m, ok := s.metricsCache.Get(userID); ok {
		return m, nil
	}

	transactions, debts, err := s.load(ctx, userID)
	if err != nil {
		return DashboardMetrics{}, err
	}

	now := s.now()
	m := DashboardMetrics{
		Balance:          core.ComputeBalance(transactions, debts, now),
		SafeToSpendDaily: core.ComputeSafeToSpend(transactions, debts, now),
		MonthlyNet:       core.ComputeMonthlyNet(transactions, now),
	}
	s.metricsCache.Set(userID, m)
	return m, nil
}

// Forecast projects the coming week from trailing averages. Debts never enter
// the projection, so only transactions are loaded.
func (s *DashboardService) Forecast(ctx context.Context, userID int64) (ForecastResult, error) {
	var transactions []core.Transaction
	if userID > 0 {
		var err error
		transactions, err = s.store.ListTransactions(ctx, userID)
		if err != nil {
			return ForecastResult{}, fmt.Errorf("load transactions: %w", err)
		}
	}

	f := core.ComputeSevenDayForecast(transactions, s.now())
	insight := core.SelectForecastInsight(f)
	return ForecastResult{
		Forecast: f,
		Insight:  insight,
		Message:  insight.Message(f),
	}, nil
}

// InvalidateUser drops the cached metrics after a ledger write.
func (s *DashboardService) InvalidateUser(userID int64) {
	s.metricsCache.Invalidate(userID)
}

// RunCacheCleanup sweeps expired cache entries until ctx is done.
func (s *DashboardService) RunCacheCleanup(ctx context.Context, interval time.Duration) {
	s.metricsCache.RunCleanup(ctx, interval)
}

func (s *DashboardService) load(ctx context.Context, userID int64) ([]core.Transaction, []core.Debt, error) {
	transactions, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}
	debts, err := s.store.ListDebts(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load debts: %w", err)
	}
	return transactions, debts, nil
}

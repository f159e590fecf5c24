package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwise/internal/core"
	"finwise/internal/services"
)

type fakeAuth struct {
	userID int64
}

func (f *fakeAuth) Register(_ context.Context, email, password string) (core.User, error) {
	if err := core.ValidateCredentials(email, password); err != nil {
		return core.User{}, err
	}
	return core.User{ID: 1, Email: email}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (core.User, string, error) {
	f.userID = 1
	return core.User{ID: 1, Email: email}, "token-1", nil
}

func (f *fakeAuth) Logout(_ context.Context) error {
	f.userID = 0
	return nil
}

func (f *fakeAuth) CurrentUserID(_ context.Context) (int64, error) { return f.userID, nil }

func (f *fakeAuth) ChangePassword(_ context.Context, _ int64, _, _ string) error { return nil }

type fakeTransactions struct {
	created []core.Transaction
}

func (f *fakeTransactions) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = int64(len(f.created) + 1)
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeTransactions) List(_ context.Context, userID int64) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.created {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) ListByMonth(_ context.Context, userID int64, year int, month time.Month) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.created {
		if t.UserID == userID && t.Date.Year() == year && t.Date.Month() == month {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) Categories(_ context.Context) ([]core.Category, error) {
	return []core.Category{{ID: 1, Name: "Salary", Type: core.Income, Color: "#4CAF50"}}, nil
}

func (f *fakeTransactions) ClearData(_ context.Context, userID int64) error {
	kept := f.created[:0]
	for _, t := range f.created {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	f.created = kept
	return nil
}

type fakeDebts struct {
	debts  map[int64]core.Debt
	nextID int64
}

func newFakeDebts() *fakeDebts { return &fakeDebts{debts: make(map[int64]core.Debt), nextID: 1} }

func (f *fakeDebts) Create(_ context.Context, d core.Debt) (core.Debt, error) {
	if d.DueDate.IsZero() {
		d.DueDate = time.Now().Add(7 * 24 * time.Hour)
	}
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.ID = f.nextID
	d.Paid = d.PayDate != nil
	f.nextID++
	f.debts[d.ID] = d
	return d, nil
}

func (f *fakeDebts) Get(_ context.Context, userID, debtID int64) (core.Debt, error) {
	d, ok := f.debts[debtID]
	if !ok || d.UserID != userID {
		return core.Debt{}, services.ErrDebtNotFound
	}
	return d, nil
}

func (f *fakeDebts) List(_ context.Context, userID int64) ([]core.Debt, error) {
	var out []core.Debt
	for _, d := range f.debts {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDebts) Update(_ context.Context, d core.Debt) (core.Debt, error) {
	cur, ok := f.debts[d.ID]
	if !ok || cur.UserID != d.UserID {
		return core.Debt{}, services.ErrDebtNotFound
	}
	d.Paid = cur.Paid
	d.PayDate = cur.PayDate
	f.debts[d.ID] = d
	return d, nil
}

func (f *fakeDebts) MarkPaid(_ context.Context, userID, debtID int64, payDate time.Time) (core.Debt, error) {
	d, ok := f.debts[debtID]
	if !ok || d.UserID != userID {
		return core.Debt{}, services.ErrDebtNotFound
	}
	if payDate.IsZero() {
		payDate = time.Now()
	}
	d.Paid = true
	d.PayDate = &payDate
	f.debts[debtID] = d
	return d, nil
}

func (f *fakeDebts) MarkUnpaid(_ context.Context, userID, debtID int64) (core.Debt, error) {
	d, ok := f.debts[debtID]
	if !ok || d.UserID != userID {
		return core.Debt{}, services.ErrDebtNotFound
	}
	d.Paid = false
	d.PayDate = nil
	f.debts[debtID] = d
	return d, nil
}

func (f *fakeDebts) Delete(_ context.Context, userID, debtID int64) error {
	d, ok := f.debts[debtID]
	if !ok || d.UserID != userID {
		return services.ErrDebtNotFound
	}
	delete(f.debts, debtID)
	return nil
}

type fakeDashboard struct {
	invalidated []int64
}

func (f *fakeDashboard) Metrics(_ context.Context, userID int64) (services.DashboardMetrics, error) {
	if userID <= 0 {
		return services.DashboardMetrics{
			Balance: decimal.Zero, SafeToSpendDaily: decimal.Zero, MonthlyNet: decimal.Zero,
		}, nil
	}
	return services.DashboardMetrics{
		Balance:          decimal.NewFromInt(800),
		SafeToSpendDaily: decimal.RequireFromString("91.43"),
		MonthlyNet:       decimal.NewFromInt(700),
	}, nil
}

func (f *fakeDashboard) Forecast(_ context.Context, userID int64) (services.ForecastResult, error) {
	var f7 core.SevenDayForecast
	insight := core.SelectForecastInsight(f7)
	return services.ForecastResult{Forecast: f7, Insight: insight, Message: insight.Message(f7)}, nil
}

func (f *fakeDashboard) InvalidateUser(userID int64) {
	f.invalidated = append(f.invalidated, userID)
}

type testEnv struct {
	server    *Server
	auth      *fakeAuth
	debts     *fakeDebts
	dashboard *fakeDashboard
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:      &fakeAuth{},
		debts:     newFakeDebts(),
		dashboard: &fakeDashboard{},
	}
	env.server = NewServer(":0", env.auth, &fakeTransactions{}, env.debts, env.dashboard)
	t.Cleanup(func() { env.server.rateLimiter.stop() })
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.1:4321"
	rec := httptest.NewRecorder()
	e.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", credentialsRequest{
		Email: "me@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestServer(t)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readyz", nil).Code)
}

func TestMutationsRequireSession(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", createTransactionRequest{
		Amount: "10", Type: "INCOME", Date: "2025-06-01",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/debts", debtRequest{
		PersonName: "Alice", Amount: "50", Direction: "OWED_BY_ME",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReadsWithoutSessionAreNeutral(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash dashboardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, "0.00", dash.Balance)
	assert.Equal(t, "0.00", dash.SafeToSpendDaily)
}

func TestCreateTransaction(t *testing.T) {
	env := newTestServer(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/transactions", createTransactionRequest{
		Amount: "42,50", Type: "EXPENSE", CategoryID: 3, Description: "groceries", Date: "2025-06-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got transactionJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "42.50", got.Amount, "decimal comma input must normalize")
	assert.Equal(t, []int64{1}, env.dashboard.invalidated)
}

func TestCreateTransactionRejectsBadAmount(t *testing.T) {
	env := newTestServer(t)
	env.login(t)

	for _, amount := range []string{"", "-5", "0", "abc"} {
		rec := env.do(t, http.MethodPost, "/api/transactions", createTransactionRequest{
			Amount: amount, Type: "INCOME", Date: "2025-06-01",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "amount %q", amount)
	}
}

func TestDebtLifecycleOverHTTP(t *testing.T) {
	env := newTestServer(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/debts", debtRequest{
		PersonName: "Alice", Amount: "300", Direction: "OWED_BY_ME", DueDate: "2025-07-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created debtJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.Paid)

	rec = env.do(t, http.MethodPost, "/api/debts/1/paid", markPaidRequest{PayDate: "2025-06-20"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid debtJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PayDate)

	rec = env.do(t, http.MethodPost, "/api/debts/1/unpaid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unpaid debtJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unpaid))
	assert.False(t, unpaid.Paid)
	assert.Nil(t, unpaid.PayDate)

	rec = env.do(t, http.MethodDelete, "/api/debts/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/debts/1/paid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkPaidUnknownDebt(t *testing.T) {
	env := newTestServer(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/debts/999/paid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/debts/abc/paid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecastEndpoint(t *testing.T) {
	env := newTestServer(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/forecast", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got forecastJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, string(core.InsightBreakingEven), got.Insight)
	assert.Contains(t, got.Message, "breaking even")
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

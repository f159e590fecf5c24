// Package http exposes the service as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finwise/internal/core"
	"finwise/internal/services"
)

// AuthService is the authentication surface the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (core.User, error)
	Login(ctx context.Context, email, password string) (core.User, string, error)
	Logout(ctx context.Context) error
	CurrentUserID(ctx context.Context) (int64, error)
	ChangePassword(ctx context.Context, userID int64, current, newPassword string) error
}

// TransactionService records and lists ledger entries.
type TransactionService interface {
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	List(ctx context.Context, userID int64) ([]core.Transaction, error)
	ListByMonth(ctx context.Context, userID int64, year int, month time.Month) ([]core.Transaction, error)
	Categories(ctx context.Context) ([]core.Category, error)
	ClearData(ctx context.Context, userID int64) error
}

// DebtService owns the debt lifecycle.
type DebtService interface {
	Create(ctx context.Context, d core.Debt) (core.Debt, error)
	Get(ctx context.Context, userID, debtID int64) (core.Debt, error)
	List(ctx context.Context, userID int64) ([]core.Debt, error)
	Update(ctx context.Context, d core.Debt) (core.Debt, error)
	MarkPaid(ctx context.Context, userID, debtID int64, payDate time.Time) (core.Debt, error)
	MarkUnpaid(ctx context.Context, userID, debtID int64) (core.Debt, error)
	Delete(ctx context.Context, userID, debtID int64) error
}

// DashboardService computes derived metrics.
type DashboardService interface {
	Metrics(ctx context.Context, userID int64) (services.DashboardMetrics, error)
	Forecast(ctx context.Context, userID int64) (services.ForecastResult, error)
	InvalidateUser(userID int64)
}

type Server struct {
	*http.Server
	auth         AuthService
	transactions TransactionService
	debts        DebtService
	dashboard    DashboardService
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, auth AuthService, transactions TransactionService, debts DebtService, dashboard DashboardService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		auth:         auth,
		transactions: transactions,
		debts:        debts,
		dashboard:    dashboard,
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("POST /api/auth/password", s.withSecurityHeaders(s.handleChangePassword))

	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/categories", s.withSecurityHeaders(s.handleListCategories))

	mux.HandleFunc("GET /api/debts", s.withSecurityHeaders(s.handleListDebts))
	mux.HandleFunc("POST /api/debts", s.withSecurityHeaders(s.handleCreateDebt))
	mux.HandleFunc("GET /api/debts/{id}", s.withSecurityHeaders(s.handleGetDebt))
	mux.HandleFunc("PUT /api/debts/{id}", s.withSecurityHeaders(s.handleUpdateDebt))
	mux.HandleFunc("DELETE /api/debts/{id}", s.withSecurityHeaders(s.handleDeleteDebt))
	mux.HandleFunc("POST /api/debts/{id}/paid", s.withSecurityHeaders(s.handleMarkDebtPaid))
	mux.HandleFunc("POST /api/debts/{id}/unpaid", s.withSecurityHeaders(s.handleMarkDebtUnpaid))

	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("GET /api/forecast", s.withSecurityHeaders(s.handleForecast))
	mux.HandleFunc("DELETE /api/data", s.withSecurityHeaders(s.handleClearData))

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", clientIP)

		// Rate limit mutations only; dashboard polling stays cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

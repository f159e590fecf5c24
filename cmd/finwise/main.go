package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finwise/internal/auth"
	"finwise/internal/calendar"
	gcal "finwise/internal/calendar/google"
	"finwise/internal/config"
	apphttp "finwise/internal/http"
	applog "finwise/internal/log"
	"finwise/internal/notify"
	"finwise/internal/services"
	"finwise/internal/storage"
)

func main() {
	logger := applog.WithComponent(applog.Setup(applog.DefaultConfig()), applog.ComponentApp)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Reminders are optional; the debt lifecycle works without a broker.
	var notifier services.Notifier
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Reminder publisher unavailable, continuing without reminders", "error", err)
		} else {
			defer publisher.Close()
			notifier = publisher
		}
	}

	// Calendar integration is opt-in via GOOGLE_CALENDAR_ID.
	var calendarWriter calendar.EventWriter
	if cfg.GoogleCalendarID != "" {
		client, err := gcal.NewFromEnv(context.Background())
		if err != nil {
			logger.Warn("Calendar client unavailable, continuing without calendar events", "error", err)
		} else {
			calendarWriter = client
		}
	}

	authSvc := auth.NewService(repo, cfg.BcryptCost)
	transactionSvc := services.NewTransactionService(repo)
	debtSvc := services.NewDebtService(repo, notifier, calendarWriter)
	dashboardSvc := services.NewDashboardService(repo, cfg.MetricsCacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, authSvc, transactionSvc, debtSvc, dashboardSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dashboardSvc.RunCacheCleanup(ctx, 5*time.Minute)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finwise server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"reminders", notifier != nil,
		"calendar", calendarWriter != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

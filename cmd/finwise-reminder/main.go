// The finwise-reminder worker consumes debt reminder messages and fires
// payment-due notifications when their time comes.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"finwise/internal/config"
	applog "finwise/internal/log"
	"finwise/internal/notify"
	"finwise/internal/worker"
)

func main() {
	logger := applog.WithComponent(applog.Setup(applog.DefaultConfig()), applog.ComponentWorker)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	consumer, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer consumer.Close()

	reminders := worker.NewReminderWorker()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeWithRetry(ctx, reminders.HandleMessage)
	})
	g.Go(func() error {
		return reminders.Run(ctx, cfg.ReminderPollInterval)
	})

	logger.Info("Reminder worker started",
		"queue", cfg.AMQPQueue,
		"poll_interval", cfg.ReminderPollInterval)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Reminder worker stopped gracefully")
}

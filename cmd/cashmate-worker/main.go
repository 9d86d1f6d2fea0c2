// Command cashmate-worker consumes applied-transaction events and writes
// them to a structured audit log. It demonstrates the consumer side of the
// event stream; reporting and chat integrations hang off the same queue.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cashmate/internal/amqp"
	"cashmate/internal/config"
	applog "cashmate/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentAMQP,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting cashmate-worker", "queue", cfg.AMQPQueue)

	err = amqpClient.ConsumeTransactionApplied(ctx, func(msg *amqp.TransactionAppliedMessage) error {
		logger.InfoContext(ctx, "Transaction event received",
			"transaction_id", msg.TransactionID,
			"user_id", msg.UserID,
			"kind", msg.Kind,
			"applied_at", msg.Timestamp)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}

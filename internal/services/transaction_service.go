// Package services composes the classifier, the ledger engine and the
// event stream into the operations the boundary layers call.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashmate/internal/core"
)

// Classifier turns raw text into a validated draft.
type Classifier interface {
	Classify(ctx context.Context, text string) (core.Draft, error)
}

// Applier applies a draft to the user's ledger.
type Applier interface {
	Apply(ctx context.Context, userID string, draft core.Draft) (core.AppliedTransaction, error)
}

// Querier reads ledger state.
type Querier interface {
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	RecentTransactions(ctx context.Context, userID string, limit int) ([]core.AppliedTransaction, error)
	MonthlySummary(ctx context.Context, userID string, year int, month time.Month) (core.MonthlySummary, error)
}

// EventPublisher announces applied transactions to downstream consumers.
type EventPublisher interface {
	PublishTransactionApplied(ctx context.Context, transactionID int64, userID, kind string) error
}

// TransactionService is the application-level facade: interpret text,
// apply it to the ledger, publish the event.
type TransactionService struct {
	classifier Classifier
	applier    Applier
	querier    Querier
	publisher  EventPublisher // optional
}

func NewTransactionService(classifier Classifier, applier Applier, querier Querier, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		classifier: classifier,
		applier:    applier,
		querier:    querier,
		publisher:  publisher,
	}
}

// InterpretAndApply classifies raw text and applies the resulting draft to
// the user's ledger. The applied record is committed before the event is
// published; a publish failure is logged, never surfaced.
func (s *TransactionService) InterpretAndApply(ctx context.Context, userID, text string) (core.AppliedTransaction, error) {
	draft, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("classify: %w", err)
	}

	applied, err := s.applier.Apply(ctx, userID, draft)
	if err != nil {
		return core.AppliedTransaction{}, err
	}

	if err := s.publishApplied(ctx, applied); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", applied.ID, "error", err)
		// The ledger write already committed; the event stream catches up later.
	}

	return applied, nil
}

// Accounts lists the user's accounts with balances.
func (s *TransactionService) Accounts(ctx context.Context, userID string) ([]core.Account, error) {
	accounts, err := s.querier.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Recent returns the user's latest transactions, newest first.
func (s *TransactionService) Recent(ctx context.Context, userID string, limit int) ([]core.AppliedTransaction, error) {
	transactions, err := s.querier.RecentTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return transactions, nil
}

// Summary aggregates one calendar month of the user's activity.
func (s *TransactionService) Summary(ctx context.Context, userID string, year int, month time.Month) (core.MonthlySummary, error) {
	summary, err := s.querier.MonthlySummary(ctx, userID, year, month)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}
	return summary, nil
}

func (s *TransactionService) publishApplied(ctx context.Context, applied core.AppliedTransaction) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping")
		return nil
	}
	return s.publisher.PublishTransactionApplied(ctx, applied.ID, applied.UserID, string(applied.Kind))
}

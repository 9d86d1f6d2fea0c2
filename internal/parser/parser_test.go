package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashmate/internal/core"
)

type stubClassifier struct {
	draft core.Draft
	err   error
	delay time.Duration
}

func (s *stubClassifier) Classify(ctx context.Context, _ string) (core.Draft, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return core.Draft{}, ctx.Err()
		}
	}
	return s.draft, s.err
}

func TestOrchestrator_PrimaryWins(t *testing.T) {
	aiDraft := core.Draft{Kind: core.Expense, Amount: 20_000, Account: "cash", Category: "transportasi", Note: "gojek"}
	o := NewOrchestrator(&stubClassifier{draft: aiDraft}, NewRuleClassifier(), time.Second)

	got, err := o.Classify(context.Background(), "gojek 20rb")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got != aiDraft {
		t.Fatalf("expected AI draft %+v, got %+v", aiDraft, got)
	}
}

func TestOrchestrator_FallbackOnPrimaryError(t *testing.T) {
	primary := &stubClassifier{err: core.ErrClassifierUnavailable}
	o := NewOrchestrator(primary, NewRuleClassifier(), time.Second)

	got, err := o.Classify(context.Background(), "bakso 15k")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := core.Draft{Kind: core.Expense, Amount: 15_000, Account: "cash", Category: "makanan", Note: "bakso"}
	if got != want {
		t.Fatalf("expected rule draft %+v, got %+v", want, got)
	}
}

func TestOrchestrator_FallbackOnPrimaryTimeout(t *testing.T) {
	primary := &stubClassifier{
		draft: core.Draft{Kind: core.Expense, Amount: 1, Account: "cash", Category: "lainnya"},
		delay: 200 * time.Millisecond,
	}
	o := NewOrchestrator(primary, NewRuleClassifier(), 10*time.Millisecond)

	got, err := o.Classify(context.Background(), "bakso 15k")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Amount != 15_000 {
		t.Fatalf("expected fallback amount 15000, got %d", got.Amount)
	}
}

func TestOrchestrator_FallbackOnInvalidPrimaryDraft(t *testing.T) {
	// Negative amount violates the schema; the AI result is discarded.
	primary := &stubClassifier{draft: core.Draft{Kind: core.Expense, Amount: -5, Account: "cash", Category: "x"}}
	o := NewOrchestrator(primary, NewRuleClassifier(), time.Second)

	got, err := o.Classify(context.Background(), "bakso 15k")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Amount != 15_000 {
		t.Fatalf("expected fallback amount 15000, got %d", got.Amount)
	}
}

func TestOrchestrator_NotATransactionPropagates(t *testing.T) {
	o := NewOrchestrator(&stubClassifier{err: core.ErrClassifierUnavailable}, NewRuleClassifier(), time.Second)

	_, err := o.Classify(context.Background(), "halo bot")
	if !errors.Is(err, core.ErrNotATransaction) {
		t.Fatalf("expected ErrNotATransaction, got %v", err)
	}
}

func TestOrchestrator_NilPrimary(t *testing.T) {
	o := NewOrchestrator(nil, NewRuleClassifier(), time.Second)

	got, err := o.Classify(context.Background(), "bakso 15k")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Kind != core.Expense {
		t.Fatalf("expected expense, got %s", got.Kind)
	}
}

// Package parser turns free-form transaction text into structured drafts.
// Two classifiers implement one contract: an AI-backed one (see the gemini
// subpackage) and the deterministic rule-based one in this package. The
// orchestrator composes them with a single fallback hop.
package parser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cashmate/internal/core"
)

// Classifier produces a structured transaction draft from raw text.
type Classifier interface {
	Classify(ctx context.Context, text string) (core.Draft, error)
}

// Orchestrator tries the primary (AI) classifier with a bounded timeout and
// falls back to the rule-based classifier on any failure or validation
// miss. This is the only retry policy in the system: one fallback hop, no
// retries beyond it.
type Orchestrator struct {
	primary  Classifier // optional; nil means rule-based only
	fallback Classifier
	timeout  time.Duration
}

func NewOrchestrator(primary, fallback Classifier, timeout time.Duration) *Orchestrator {
	return &Orchestrator{primary: primary, fallback: fallback, timeout: timeout}
}

// Classify returns a validated draft. Primary-path failures are absorbed
// here; an error from the fallback path is surfaced as-is, with
// core.ErrNotATransaction kept distinct from validation failures.
func (o *Orchestrator) Classify(ctx context.Context, text string) (core.Draft, error) {
	if o.primary != nil {
		cctx, cancel := context.WithTimeout(ctx, o.timeout)
		draft, err := o.primary.Classify(cctx, text)
		cancel()
		if err == nil {
			if verr := draft.Validate(); verr == nil {
				slog.DebugContext(ctx, "Using AI classifier draft", "kind", draft.Kind, "amount", draft.Amount)
				return draft, nil
			} else {
				slog.WarnContext(ctx, "AI draft failed validation, falling back", "error", verr)
			}
		} else if !errors.Is(err, core.ErrNotATransaction) {
			slog.WarnContext(ctx, "AI classifier unavailable, falling back", "error", err)
		}
	}

	draft, err := o.fallback.Classify(ctx, text)
	if err != nil {
		return core.Draft{}, err
	}
	if err := draft.Validate(); err != nil {
		return core.Draft{}, err
	}
	return draft, nil
}

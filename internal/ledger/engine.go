// Package ledger applies validated transaction drafts to per-user account
// balances. All mutations run inside a single storage transaction so a
// failed debit never leaves a half-applied transfer behind.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cashmate/internal/core"
)

// Tx is the set of storage operations available inside one transaction.
type Tx interface {
	// GetAccount looks up an account by its normalized name, returning
	// core.ErrAccountNotFound when the user has no such account.
	GetAccount(ctx context.Context, userID, name string) (core.Account, error)
	// CreateAccount inserts a zero-balance account and returns it.
	CreateAccount(ctx context.Context, userID, name string, kind core.AccountKind) (core.Account, error)
	// SetBalance overwrites an account balance.
	SetBalance(ctx context.Context, accountID, balance int64) error
	// AppendTransaction persists the applied record and returns its id.
	AppendTransaction(ctx context.Context, t core.AppliedTransaction) (int64, error)
}

// Store opens transactions. fn runs exactly once; a non-nil return rolls
// everything back.
type Store interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Engine applies drafts against a Store.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply executes a validated draft for a user: it resolves or creates the
// referenced accounts, moves the balances and appends the immutable
// transaction record, all inside one storage transaction.
//
// Debits that would drive a balance negative fail with
// *core.InsufficientBalanceError and leave no trace.
func (e *Engine) Apply(ctx context.Context, userID string, draft core.Draft) (core.AppliedTransaction, error) {
	if err := draft.Validate(); err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("apply draft: %w", err)
	}

	var applied core.AppliedTransaction
	err := e.store.ExecTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		switch draft.Kind {
		case core.Income:
			applied, err = e.applyIncome(ctx, tx, userID, draft)
		case core.Expense:
			applied, err = e.applyExpense(ctx, tx, userID, draft)
		case core.Transfer:
			applied, err = e.applyTransfer(ctx, tx, userID, draft)
		default:
			err = fmt.Errorf("unsupported kind %q", draft.Kind)
		}
		return err
	})
	if err != nil {
		return core.AppliedTransaction{}, err
	}

	slog.InfoContext(ctx, "Transaction applied",
		"user_id", userID,
		"transaction_id", applied.ID,
		"kind", applied.Kind,
		"amount", applied.Amount,
	)
	return applied, nil
}

func (e *Engine) applyIncome(ctx context.Context, tx Tx, userID string, draft core.Draft) (core.AppliedTransaction, error) {
	acc, err := resolveAccount(ctx, tx, userID, draft.Account)
	if err != nil {
		return core.AppliedTransaction{}, err
	}
	if err := tx.SetBalance(ctx, acc.ID, acc.Balance+draft.Amount); err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("credit %s: %w", acc.Name, err)
	}
	return appendRecord(ctx, tx, core.AppliedTransaction{
		UserID:   userID,
		Kind:     core.Income,
		Amount:   draft.Amount,
		Account:  acc.Name,
		Category: draft.Category,
		Note:     draft.Note,
	})
}

func (e *Engine) applyExpense(ctx context.Context, tx Tx, userID string, draft core.Draft) (core.AppliedTransaction, error) {
	acc, err := resolveAccount(ctx, tx, userID, draft.Account)
	if err != nil {
		return core.AppliedTransaction{}, err
	}
	if acc.Balance < draft.Amount {
		return core.AppliedTransaction{}, &core.InsufficientBalanceError{
			Account:   acc.Name,
			Available: acc.Balance,
			Required:  draft.Amount,
		}
	}
	if err := tx.SetBalance(ctx, acc.ID, acc.Balance-draft.Amount); err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("debit %s: %w", acc.Name, err)
	}
	return appendRecord(ctx, tx, core.AppliedTransaction{
		UserID:   userID,
		Kind:     core.Expense,
		Amount:   draft.Amount,
		Account:  acc.Name,
		Category: draft.Category,
		Note:     draft.Note,
	})
}

func (e *Engine) applyTransfer(ctx context.Context, tx Tx, userID string, draft core.Draft) (core.AppliedTransaction, error) {
	src, err := resolveAccount(ctx, tx, userID, draft.SourceAccount)
	if err != nil {
		return core.AppliedTransaction{}, err
	}
	// The source is checked before the destination is even resolved, so a
	// failed transfer never creates the destination account.
	if src.Balance < draft.Amount {
		return core.AppliedTransaction{}, &core.InsufficientBalanceError{
			Account:   src.Name,
			Available: src.Balance,
			Required:  draft.Amount,
		}
	}
	dst, err := resolveAccount(ctx, tx, userID, draft.DestAccount)
	if err != nil {
		return core.AppliedTransaction{}, err
	}
	if err := tx.SetBalance(ctx, src.ID, src.Balance-draft.Amount); err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("debit %s: %w", src.Name, err)
	}
	if err := tx.SetBalance(ctx, dst.ID, dst.Balance+draft.Amount); err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("credit %s: %w", dst.Name, err)
	}
	return appendRecord(ctx, tx, core.AppliedTransaction{
		UserID:        userID,
		Kind:          core.Transfer,
		Amount:        draft.Amount,
		SourceAccount: src.Name,
		DestAccount:   dst.Name,
		Category:      draft.Category,
		Note:          draft.Note,
	})
}

// resolveAccount finds the user's account under the normalized name,
// creating it with a zero balance on first reference. The account kind is
// guessed from the name once, at creation.
func resolveAccount(ctx context.Context, tx Tx, userID, name string) (core.Account, error) {
	normalized := core.NormalizeAccountName(name)
	if normalized == "" {
		return core.Account{}, core.ErrEmptyAccountName
	}

	acc, err := tx.GetAccount(ctx, userID, normalized)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, core.ErrAccountNotFound) {
		return core.Account{}, fmt.Errorf("get account %s: %w", normalized, err)
	}

	acc, err = tx.CreateAccount(ctx, userID, normalized, core.GuessAccountKind(normalized))
	if err != nil {
		return core.Account{}, fmt.Errorf("create account %s: %w", normalized, err)
	}
	return acc, nil
}

func appendRecord(ctx context.Context, tx Tx, t core.AppliedTransaction) (core.AppliedTransaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	id, err := tx.AppendTransaction(ctx, t)
	if err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("append transaction: %w", err)
	}
	t.ID = id
	return t, nil
}

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotATransaction marks input with no recognizable amount token.
	// It is a classification, not a failure: callers render the "not
	// recognized" path instead of logging an error.
	ErrNotATransaction = errors.New("input is not a transaction")

	// ErrClassifierUnavailable marks an AI classifier failure (timeout,
	// quota, malformed output). It never crosses the services boundary:
	// the orchestrator absorbs it by falling back to the rule path.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrEmptyAccountName marks an account reference that normalizes to
	// the empty string.
	ErrEmptyAccountName = errors.New("account name is empty")

	// ErrAccountNotFound is returned by storage lookups for an account the
	// user has never referenced. The ledger engine treats it as a signal to
	// create the account with a zero balance.
	ErrAccountNotFound = errors.New("account not found")
)

// AmountParseError reports a malformed numeric token.
type AmountParseError struct {
	Token  string
	Reason string
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("parse amount %q: %s", e.Token, e.Reason)
}

// ValidationError reports a draft field violating the classifier output
// schema. Coming from the AI path it triggers fallback; coming from the
// rule path it is surfaced, since there is no further fallback.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientBalanceError is returned by the ledger engine when a debit
// would drive an account negative. No mutation happens; the three fields
// let the boundary layer render a precise message.
type InsufficientBalanceError struct {
	Account   string
	Available int64
	Required  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on %s: available %d, required %d",
		e.Account, e.Available, e.Required)
}

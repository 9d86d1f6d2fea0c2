// Package core defines the domain model for the transaction interpretation
// and ledger engine: accounts, transactions, classifier drafts and the typed
// error taxonomy shared by every layer.
package core

import (
	"strings"
	"time"
)

const (
	Income   Kind = "income"
	Expense  Kind = "expense"
	Transfer Kind = "transfer"
)

const (
	AccountCash    AccountKind = "cash"
	AccountBank    AccountKind = "bank"
	AccountEWallet AccountKind = "e-wallet"
)

// DefaultCategory is assigned when no keyword rule matches.
const DefaultCategory = "lainnya"

// DefaultNote is used when a draft carries no free text.
const DefaultNote = "Transaksi"

type (
	// Kind is the transaction type.
	Kind string

	// AccountKind tags an account for display purposes. It carries no
	// balance semantics.
	AccountKind string

	// Account is a per-user named balance. Balance is an exact integer in
	// the smallest currency unit and is never negative.
	Account struct {
		ID      int64
		UserID  string
		Name    string
		Kind    AccountKind
		Balance int64
	}

	// Draft is the structured candidate produced by a classifier (AI or
	// rule-based) before it is applied to the ledger. Exactly one of
	// Account or (SourceAccount, DestAccount) is populated, matching Kind.
	Draft struct {
		Kind          Kind
		Amount        int64
		Account       string
		SourceAccount string
		DestAccount   string
		Category      string
		Note          string
	}

	// CategoryTotal is one row of a summary breakdown: the sum and count of
	// one kind-category pair within the month.
	CategoryTotal struct {
		Kind     Kind
		Category string
		Total    int64
		Count    int
	}

	// MonthlySummary aggregates a user's activity for one calendar month.
	// Transfers move money between the user's own accounts: they count
	// toward TransactionCount but are excluded from the income and expense
	// totals and the category breakdown. Balances holds the user's current
	// nonzero accounts regardless of month.
	MonthlySummary struct {
		Year             int
		Month            time.Month
		TotalIncome      int64
		TotalExpense     int64
		Net              int64
		TransactionCount int
		ByCategory       []CategoryTotal
		Balances         []Account
	}

	// AppliedTransaction is the immutable record persisted by the ledger
	// engine, with resolved account identities and acceptance timestamp.
	AppliedTransaction struct {
		ID            int64
		UserID        string
		Kind          Kind
		Amount        int64
		Account       string
		SourceAccount string
		DestAccount   string
		Category      string
		Note          string
		CreatedAt     time.Time
	}
)

// Valid reports whether k is one of the three transaction kinds.
func (k Kind) Valid() bool {
	switch k {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// NormalizeAccountName folds an account reference into the lookup key:
// trimmed, lower-cased, inner whitespace collapsed to single spaces.
// Referencing the same textual name always resolves to the same account.
func NormalizeAccountName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Validate checks a draft against the classifier output schema. Both the
// rule-based and the AI path must pass the same constraints before the
// draft reaches the ledger engine.
func (d Draft) Validate() error {
	if !d.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "must be income, expense or transfer"}
	}
	if d.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be a positive integer"}
	}
	if strings.TrimSpace(d.Category) == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if d.Kind == Transfer {
		src := NormalizeAccountName(d.SourceAccount)
		dst := NormalizeAccountName(d.DestAccount)
		if src == "" {
			return &ValidationError{Field: "source_account", Reason: "must not be empty"}
		}
		if dst == "" {
			return &ValidationError{Field: "dest_account", Reason: "must not be empty"}
		}
		if src == dst {
			return &ValidationError{Field: "dest_account", Reason: "must differ from source account"}
		}
		if strings.TrimSpace(d.Account) != "" {
			return &ValidationError{Field: "account", Reason: "must be empty for transfers"}
		}
		return nil
	}
	if NormalizeAccountName(d.Account) == "" {
		return &ValidationError{Field: "account", Reason: "must not be empty"}
	}
	if strings.TrimSpace(d.SourceAccount) != "" || strings.TrimSpace(d.DestAccount) != "" {
		return &ValidationError{Field: "source_account", Reason: "only transfers carry source and destination"}
	}
	return nil
}

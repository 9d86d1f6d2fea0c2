// Package storage persists accounts and transactions in SQLite. The
// repository implements ledger.Store; balance mutations only ever happen
// inside ExecTx, and a CHECK constraint on the balance column backs up the
// engine's non-negative invariant at the database level.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cashmate/internal/core"
	"cashmate/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ExecTx implements ledger.Store. fn runs inside a database transaction;
// any error rolls it back.
func (r *SQLiteRepository) ExecTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, &sqliteTx{tx: dbTx}); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sqliteTx implements ledger.Tx on top of one *sql.Tx.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetAccount(ctx context.Context, userID, name string) (core.Account, error) {
	var acc core.Account
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, user_id, name, kind, balance FROM accounts WHERE user_id = ? AND name = ?`,
		userID, name,
	).Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Kind, &acc.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("query account: %w", err)
	}
	return acc, nil
}

func (t *sqliteTx) CreateAccount(ctx context.Context, userID, name string, kind core.AccountKind) (core.Account, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, kind, balance) VALUES (?, ?, ?, 0)`,
		userID, name, string(kind),
	)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	return core.Account{ID: id, UserID: userID, Name: name, Kind: kind}, nil
}

func (t *sqliteTx) SetBalance(ctx context.Context, accountID, balance int64) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`,
		balance, accountID,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update balance: account %d: %w", accountID, core.ErrAccountNotFound)
	}
	return nil
}

func (t *sqliteTx) AppendTransaction(ctx context.Context, tr core.AppliedTransaction) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, kind, amount, account, source_account, dest_account, category, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.UserID, string(tr.Kind), tr.Amount,
		tr.Account, tr.SourceAccount, tr.DestAccount,
		tr.Category, tr.Note, tr.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}
	return id, nil
}

// ListAccounts returns a user's accounts ordered by kind, then name.
func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	return r.queryAccounts(ctx,
		`SELECT id, user_id, name, kind, balance FROM accounts WHERE user_id = ? ORDER BY kind, name`,
		userID,
	)
}

func (r *SQLiteRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var acc core.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Kind, &acc.Balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// RecentTransactions returns the user's latest transactions, newest first.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, userID string, limit int) ([]core.AppliedTransaction, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount, account, source_account, dest_account, category, note, created_at
		 FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.AppliedTransaction
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// MonthlySummary aggregates one calendar month: income and expense totals,
// net, transaction count, a per-kind category breakdown and the user's
// current nonzero balances. Transfers count toward the transaction count
// but not the totals.
func (r *SQLiteRepository) MonthlySummary(ctx context.Context, userID string, year int, month time.Month) (core.MonthlySummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	fromStr := from.Format(time.RFC3339Nano)
	toStr := to.Format(time.RFC3339Nano)

	summary := core.MonthlySummary{Year: year, Month: month}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, COALESCE(SUM(amount), 0), COUNT(*) FROM transactions
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 GROUP BY kind`,
		userID, fromStr, toStr,
	)
	if err != nil {
		return summary, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var total int64
		var count int
		if err := rows.Scan(&kind, &total, &count); err != nil {
			return summary, fmt.Errorf("scan total: %w", err)
		}
		summary.TransactionCount += count
		switch core.Kind(kind) {
		case core.Income:
			summary.TotalIncome = total
		case core.Expense:
			summary.TotalExpense = total
		}
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("iterate totals: %w", err)
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense

	catRows, err := r.db.QueryContext(ctx,
		`SELECT kind, category, SUM(amount), COUNT(*) FROM transactions
		 WHERE user_id = ? AND created_at >= ? AND created_at < ? AND kind IN ('income', 'expense')
		 GROUP BY kind, category ORDER BY kind, SUM(amount) DESC, category`,
		userID, fromStr, toStr,
	)
	if err != nil {
		return summary, fmt.Errorf("query category sums: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var ct core.CategoryTotal
		if err := catRows.Scan(&ct.Kind, &ct.Category, &ct.Total, &ct.Count); err != nil {
			return summary, fmt.Errorf("scan category sum: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ct)
	}
	if err := catRows.Err(); err != nil {
		return summary, fmt.Errorf("iterate category sums: %w", err)
	}

	balances, err := r.queryAccounts(ctx,
		`SELECT id, user_id, name, kind, balance FROM accounts
		 WHERE user_id = ? AND balance != 0 ORDER BY kind, name`,
		userID,
	)
	if err != nil {
		return summary, err
	}
	summary.Balances = balances

	return summary, nil
}

func scanTransaction(rows *sql.Rows) (core.AppliedTransaction, error) {
	var tr core.AppliedTransaction
	var createdAt string
	if err := rows.Scan(
		&tr.ID, &tr.UserID, &tr.Kind, &tr.Amount,
		&tr.Account, &tr.SourceAccount, &tr.DestAccount,
		&tr.Category, &tr.Note, &createdAt,
	); err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.AppliedTransaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	tr.CreatedAt = ts
	return tr, nil
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cashmate/internal/core"
	"cashmate/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cashmate.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createFunded(t *testing.T, repo *SQLiteRepository, userID, name string, kind core.AccountKind, balance int64) core.Account {
	t.Helper()
	var acc core.Account
	err := repo.ExecTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		var err error
		acc, err = tx.CreateAccount(ctx, userID, name, kind)
		if err != nil {
			return err
		}
		if balance > 0 {
			if err := tx.SetBalance(ctx, acc.ID, balance); err != nil {
				return err
			}
			acc.Balance = balance
		}
		return nil
	})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return acc
}

func appendTx(t *testing.T, repo *SQLiteRepository, tr core.AppliedTransaction) int64 {
	t.Helper()
	var id int64
	err := repo.ExecTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		var err error
		id, err = tx.AppendTransaction(ctx, tr)
		return err
	})
	if err != nil {
		t.Fatalf("append transaction: %v", err)
	}
	return id
}

func TestGetAccount_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := createFunded(t, repo, "u1", "bca", core.AccountBank, 50_000)

	err := repo.ExecTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		got, err := tx.GetAccount(ctx, "u1", "bca")
		if err != nil {
			return err
		}
		if got != created {
			t.Fatalf("got %+v, want %+v", got, created)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ExecTx: %v", err)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.ExecTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.GetAccount(ctx, "u1", "ghost")
		return err
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestExecTx_RollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.ExecTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.CreateAccount(ctx, "u1", "dana", core.AccountEWallet); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	accounts, err := repo.ListAccounts(ctx, "u1")
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("rolled-back account leaked: %+v", accounts)
	}
}

func TestSetBalance_NegativeRejectedByConstraint(t *testing.T) {
	repo := newTestRepo(t)
	acc := createFunded(t, repo, "u1", "cash", core.AccountCash, 10_000)

	err := repo.ExecTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.SetBalance(ctx, acc.ID, -1)
	})
	if err == nil {
		t.Fatal("expected CHECK constraint violation for negative balance")
	}
}

func TestCreateAccount_DuplicateNameRejected(t *testing.T) {
	repo := newTestRepo(t)
	createFunded(t, repo, "u1", "cash", core.AccountCash, 0)

	err := repo.ExecTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.CreateAccount(ctx, "u1", "cash", core.AccountCash)
		return err
	})
	if err == nil {
		t.Fatal("expected UNIQUE constraint violation for duplicate account")
	}
}

func TestLedgerEngineAgainstSQLite(t *testing.T) {
	// Full path: engine on top of the real repository.
	repo := newTestRepo(t)
	engine := ledger.NewEngine(repo)
	ctx := context.Background()

	if _, err := engine.Apply(ctx, "u1", core.Draft{
		Kind: core.Income, Amount: 5_000_000, Account: "bca", Category: "gaji", Note: "gaji",
	}); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, err := engine.Apply(ctx, "u1", core.Draft{
		Kind: core.Transfer, Amount: 100_000,
		SourceAccount: "bca", DestAccount: "dana", Category: "transfer", Note: "transfer bca ke dana",
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	accounts, err := repo.ListAccounts(ctx, "u1")
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	balances := map[string]int64{}
	for _, acc := range accounts {
		balances[acc.Name] = acc.Balance
	}
	if balances["bca"] != 4_900_000 || balances["dana"] != 100_000 {
		t.Fatalf("unexpected balances %v", balances)
	}
}

func TestRecentTransactions_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	for i, note := range []string{"first", "second", "third"} {
		appendTx(t, repo, core.AppliedTransaction{
			UserID: "u1", Kind: core.Expense, Amount: int64(1000 * (i + 1)),
			Account: "cash", Category: "lainnya", Note: note,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	appendTx(t, repo, core.AppliedTransaction{
		UserID: "u2", Kind: core.Expense, Amount: 999,
		Account: "cash", Category: "lainnya", Note: "other user",
		CreatedAt: base,
	})

	got, err := repo.RecentTransactions(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentTransactions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].Note != "third" || got[1].Note != "second" {
		t.Fatalf("unexpected order: %q, %q", got[0].Note, got[1].Note)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected timestamp %v", got[0].CreatedAt)
	}
}

func TestMonthlySummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	march := time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)

	createFunded(t, repo, "u1", "bca", core.AccountBank, 4_000_000)
	createFunded(t, repo, "u1", "dana", core.AccountEWallet, 1_000_000)
	createFunded(t, repo, "u1", "cash", core.AccountCash, 0)

	appendTx(t, repo, core.AppliedTransaction{
		UserID: "u1", Kind: core.Income, Amount: 5_000_000,
		Account: "bca", Category: "gaji", Note: "gaji", CreatedAt: march,
	})
	appendTx(t, repo, core.AppliedTransaction{
		UserID: "u1", Kind: core.Expense, Amount: 15_000,
		Account: "cash", Category: "makanan", Note: "bakso", CreatedAt: march.Add(time.Hour),
	})
	appendTx(t, repo, core.AppliedTransaction{
		UserID: "u1", Kind: core.Expense, Amount: 20_000,
		Account: "cash", Category: "makanan", Note: "soto", CreatedAt: march.Add(2 * time.Hour),
	})
	appendTx(t, repo, core.AppliedTransaction{
		UserID: "u1", Kind: core.Expense, Amount: 30_000,
		Account: "cash", Category: "transportasi", Note: "gojek", CreatedAt: march.Add(3 * time.Hour),
	})
	// Transfers count toward the transaction count but never the totals.
	appendTx(t, repo, core.AppliedTransaction{
		UserID: "u1", Kind: core.Transfer, Amount: 1_000_000,
		SourceAccount: "bca", DestAccount: "dana", Category: "transfer", Note: "transfer", CreatedAt: march,
	})
	// Outside the month.
	appendTx(t, repo, core.AppliedTransaction{
		UserID: "u1", Kind: core.Expense, Amount: 40_000,
		Account: "cash", Category: "makanan", Note: "april", CreatedAt: march.AddDate(0, 1, 0),
	})

	got, err := repo.MonthlySummary(ctx, "u1", 2025, time.March)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if got.TotalIncome != 5_000_000 {
		t.Fatalf("TotalIncome = %d, want 5000000", got.TotalIncome)
	}
	if got.TotalExpense != 65_000 {
		t.Fatalf("TotalExpense = %d, want 65000", got.TotalExpense)
	}
	if got.Net != 4_935_000 {
		t.Fatalf("Net = %d, want 4935000", got.Net)
	}
	if got.TransactionCount != 5 {
		t.Fatalf("TransactionCount = %d, want 5", got.TransactionCount)
	}
	want := []core.CategoryTotal{
		{Kind: core.Expense, Category: "makanan", Total: 35_000, Count: 2},
		{Kind: core.Expense, Category: "transportasi", Total: 30_000, Count: 1},
		{Kind: core.Income, Category: "gaji", Total: 5_000_000, Count: 1},
	}
	if len(got.ByCategory) != len(want) {
		t.Fatalf("ByCategory = %+v, want %+v", got.ByCategory, want)
	}
	for i := range want {
		if got.ByCategory[i] != want[i] {
			t.Fatalf("ByCategory[%d] = %+v, want %+v", i, got.ByCategory[i], want[i])
		}
	}

	// Zero-balance cash account is excluded; kind, then name ordering.
	if len(got.Balances) != 2 {
		t.Fatalf("Balances = %+v, want bca and dana", got.Balances)
	}
	if got.Balances[0].Name != "bca" || got.Balances[0].Balance != 4_000_000 {
		t.Fatalf("Balances[0] = %+v", got.Balances[0])
	}
	if got.Balances[1].Name != "dana" || got.Balances[1].Balance != 1_000_000 {
		t.Fatalf("Balances[1] = %+v", got.Balances[1])
	}
}

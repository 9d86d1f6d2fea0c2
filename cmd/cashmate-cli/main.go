// Command cashmate-cli interprets a single transaction message from the
// command line and applies it to the local ledger. Useful for trying out
// the classifier without running the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"cashmate/internal/config"
	"cashmate/internal/core"
	"cashmate/internal/ledger"
	applog "cashmate/internal/log"
	"cashmate/internal/parser"
	"cashmate/internal/parser/gemini"
	"cashmate/internal/services"
	"cashmate/internal/storage"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "local", "user id to apply the transaction to")
	dryRun := flag.Bool("dry-run", false, "classify only, do not touch the ledger")
	flag.Parse()

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: cashmate-cli [-user id] [-dry-run] <message>")
		os.Exit(2)
	}

	logger := applog.New(applog.Config{
		Level:     slog.LevelWarn, // keep CLI output clean
		Component: applog.ComponentCLI,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var primary parser.Classifier
	if cfg.AIEnabled() {
		aiClassifier, err := gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
		if err != nil {
			fmt.Fprintf(os.Stderr, "gemini init: %v\n", err)
			os.Exit(1)
		}
		primary = aiClassifier
	}
	classifier := parser.NewOrchestrator(primary, parser.NewRuleClassifier(), cfg.AITimeout)

	if *dryRun {
		draft, err := classifier.Classify(ctx, text)
		if err != nil {
			exitWithClassifyError(err)
		}
		printDraft(draft)
		return
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	service := services.NewTransactionService(classifier, ledger.NewEngine(repo), repo, nil)

	applied, err := service.InterpretAndApply(ctx, *user, text)
	if err != nil {
		var ibe *core.InsufficientBalanceError
		switch {
		case errors.Is(err, core.ErrNotATransaction):
			fmt.Fprintln(os.Stderr, "not a transaction: no amount found in message")
			os.Exit(1)
		case errors.As(err, &ibe):
			fmt.Fprintf(os.Stderr, "insufficient balance on %s: available %d, required %d\n",
				ibe.Account, ibe.Available, ibe.Required)
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "apply: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("applied #%d %s %d\n", applied.ID, applied.Kind, applied.Amount)
	if applied.Kind == core.Transfer {
		fmt.Printf("  %s -> %s\n", applied.SourceAccount, applied.DestAccount)
	} else {
		fmt.Printf("  account: %s\n", applied.Account)
	}
	fmt.Printf("  category: %s\n  note: %s\n", applied.Category, applied.Note)

	accounts, err := repo.ListAccounts(ctx, *user)
	if err == nil {
		fmt.Println("balances:")
		for _, acc := range accounts {
			fmt.Printf("  %-12s %d\n", acc.Name, acc.Balance)
		}
	}
}

func exitWithClassifyError(err error) {
	if errors.Is(err, core.ErrNotATransaction) {
		fmt.Fprintln(os.Stderr, "not a transaction: no amount found in message")
	} else {
		fmt.Fprintf(os.Stderr, "classify: %v\n", err)
	}
	os.Exit(1)
}

func printDraft(d core.Draft) {
	fmt.Printf("kind: %s\namount: %d\n", d.Kind, d.Amount)
	if d.Kind == core.Transfer {
		fmt.Printf("from: %s\nto: %s\n", d.SourceAccount, d.DestAccount)
	} else {
		fmt.Printf("account: %s\n", d.Account)
	}
	fmt.Printf("category: %s\nnote: %s\n", d.Category, d.Note)
}

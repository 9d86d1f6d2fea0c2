package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cashmate/internal/ledger"
	"cashmate/internal/parser"
	"cashmate/internal/services"
	"cashmate/internal/storage"
)

// newTestServer wires the full stack: rule classifier, ledger engine and a
// real SQLite repository on a temp file.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	classifier := parser.NewOrchestrator(nil, parser.NewRuleClassifier(), time.Second)
	engine := ledger.NewEngine(repo)
	service := services.NewTransactionService(classifier, engine, repo, nil)

	srv := NewServer(":0", service, 10)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postInterpret(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/interpret", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/interpret: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestInterpret_IncomeThenExpense(t *testing.T) {
	ts := newTestServer(t)

	resp := postInterpret(t, ts, `{"user_id": "u1", "text": "gaji 5jt ke bca"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("income status = %d, want 201", resp.StatusCode)
	}
	var income map[string]any
	decodeBody(t, resp, &income)
	if income["kind"] != "income" || income["amount"] != float64(5_000_000) || income["account"] != "bca" {
		t.Fatalf("unexpected income response %v", income)
	}

	resp = postInterpret(t, ts, `{"user_id": "u1", "text": "transfer bca ke dana 100k"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("transfer status = %d, want 201", resp.StatusCode)
	}
	var transfer map[string]any
	decodeBody(t, resp, &transfer)
	if transfer["kind"] != "transfer" || transfer["source_account"] != "bca" || transfer["dest_account"] != "dana" {
		t.Fatalf("unexpected transfer response %v", transfer)
	}
}

func TestInterpret_NotATransaction(t *testing.T) {
	ts := newTestServer(t)

	resp := postInterpret(t, ts, `{"user_id": "u1", "text": "halo bot"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] != "not_a_transaction" {
		t.Fatalf("error = %q, want not_a_transaction", body["error"])
	}
}

func TestInterpret_InsufficientBalance(t *testing.T) {
	ts := newTestServer(t)

	resp := postInterpret(t, ts, `{"user_id": "u1", "text": "sepatu 100k"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["error"] != "insufficient_balance" {
		t.Fatalf("error = %v, want insufficient_balance", body["error"])
	}
	if body["account"] != "cash" || body["required"] != float64(100_000) {
		t.Fatalf("unexpected detail %v", body)
	}
}

func TestInterpret_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing user", `{"text": "bakso 15k"}`},
		{"missing text", `{"user_id": "u1"}`},
		{"invalid json", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postInterpret(t, ts, tt.body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestAccountsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	postInterpret(t, ts, `{"user_id": "u1", "text": "gaji 2jt ke bca"}`).Body.Close()
	// Rejected for insufficient balance, must not leave accounts behind.
	postInterpret(t, ts, `{"user_id": "u1", "text": "topup gopay 50k"}`).Body.Close()

	resp, err := http.Get(ts.URL + "/api/accounts?user_id=u1")
	if err != nil {
		t.Fatalf("GET /api/accounts: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Accounts []accountResponse `json:"accounts"`
	}
	decodeBody(t, resp, &body)
	if len(body.Accounts) != 1 {
		t.Fatalf("expected 1 account, got %+v", body.Accounts)
	}
	if body.Accounts[0].Name != "bca" || body.Accounts[0].Balance != 2_000_000 || body.Accounts[0].Kind != "bank" {
		t.Fatalf("unexpected account %+v", body.Accounts[0])
	}
}

func TestAccountsEndpoint_MissingUser(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/accounts")
	if err != nil {
		t.Fatalf("GET /api/accounts: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRecentTransactionsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	postInterpret(t, ts, `{"user_id": "u1", "text": "gaji 1jt"}`).Body.Close()
	postInterpret(t, ts, `{"user_id": "u1", "text": "bakso 15k"}`).Body.Close()

	resp, err := http.Get(ts.URL + "/api/recent?user_id=u1&limit=1")
	if err != nil {
		t.Fatalf("GET /api/recent: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Transactions []transactionResponse `json:"transactions"`
	}
	decodeBody(t, resp, &body)
	if len(body.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(body.Transactions))
	}
	if body.Transactions[0].Note != "bakso" {
		t.Fatalf("expected newest transaction first, got %+v", body.Transactions[0])
	}
}

func TestSummaryEndpoint(t *testing.T) {
	ts := newTestServer(t)

	postInterpret(t, ts, `{"user_id": "u1", "text": "gaji 1jt"}`).Body.Close()
	postInterpret(t, ts, `{"user_id": "u1", "text": "bakso 15k"}`).Body.Close()
	postInterpret(t, ts, `{"user_id": "u1", "text": "gojek 20k"}`).Body.Close()

	now := time.Now().UTC()
	resp, err := http.Get(ts.URL + "/api/summary?user_id=u1")
	if err != nil {
		t.Fatalf("GET /api/summary: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body summaryResponse
	decodeBody(t, resp, &body)
	if body.Year != now.Year() || body.Month != int(now.Month()) {
		t.Fatalf("unexpected period %d-%d", body.Year, body.Month)
	}
	if body.TotalIncome != 1_000_000 {
		t.Fatalf("TotalIncome = %d, want 1000000", body.TotalIncome)
	}
	if body.TotalExpense != 35_000 {
		t.Fatalf("TotalExpense = %d, want 35000", body.TotalExpense)
	}
	if body.Net != 965_000 {
		t.Fatalf("Net = %d, want 965000", body.Net)
	}
	if body.TransactionCount != 3 {
		t.Fatalf("TransactionCount = %d, want 3", body.TransactionCount)
	}
	if len(body.Balances) != 1 || body.Balances[0].Name != "cash" || body.Balances[0].Balance != 965_000 {
		t.Fatalf("unexpected balances %+v", body.Balances)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

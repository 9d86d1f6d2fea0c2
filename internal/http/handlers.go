package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cashmate/internal/core"
)

type interpretRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type transactionResponse struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"`
	Amount        int64  `json:"amount"`
	Account       string `json:"account,omitempty"`
	SourceAccount string `json:"source_account,omitempty"`
	DestAccount   string `json:"dest_account,omitempty"`
	Category      string `json:"category"`
	Note          string `json:"note"`
	CreatedAt     string `json:"created_at"`
}

type accountResponse struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Balance int64  `json:"balance"`
}

type summaryResponse struct {
	Year             int                     `json:"year"`
	Month            int                     `json:"month"`
	TotalIncome      int64                   `json:"total_income"`
	TotalExpense     int64                   `json:"total_expense"`
	Net              int64                   `json:"net"`
	TransactionCount int                     `json:"transaction_count"`
	ByCategory       []categoryTotalResponse `json:"by_category"`
	Balances         []accountResponse       `json:"balances"`
}

type categoryTotalResponse struct {
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Total    int64  `json:"total"`
	Count    int    `json:"count"`
}

func toTransactionResponse(t core.AppliedTransaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Kind:          string(t.Kind),
		Amount:        t.Amount,
		Account:       t.Account,
		SourceAccount: t.SourceAccount,
		DestAccount:   t.DestAccount,
		Category:      t.Category,
		Note:          t.Note,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleInterpret classifies free-form text and applies the result to the
// caller's ledger.
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req interpretRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	req.Text = sanitizeInput(req.Text)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing_user", "user_id is required")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}

	applied, err := s.service.InterpretAndApply(r.Context(), req.UserID, req.Text)
	if err != nil {
		s.writeInterpretError(w, r, err)
		return
	}

	// The ledger changed; drop this user's cached aggregates.
	s.summaryCache.DeletePrefix(req.UserID + "|")

	writeJSON(w, http.StatusCreated, toTransactionResponse(applied))
}

// writeInterpretError maps domain errors to HTTP status codes. Unrecognized
// input and schema violations are client errors; a rejected debit is a
// conflict with the ledger state.
func (s *Server) writeInterpretError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ibe  *core.InsufficientBalanceError
		verr *core.ValidationError
	)
	switch {
	case errors.Is(err, core.ErrNotATransaction):
		writeError(w, http.StatusUnprocessableEntity, "not_a_transaction", "input does not describe a transaction")
	case errors.As(err, &ibe):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient_balance",
			"account":   ibe.Account,
			"available": ibe.Available,
			"required":  ibe.Required,
		})
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "invalid_transaction", verr.Error())
	default:
		slog.ErrorContext(r.Context(), "Interpret failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	accounts, err := s.service.Accounts(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List accounts failed", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, accountResponse{Name: acc.Name, Kind: string(acc.Kind), Balance: acc.Balance})
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r, s.recentLimit)

	transactions, err := s.service.Recent(r.Context(), userID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Recent transactions failed", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	year, month := parseYearMonth(r)
	cacheKey := fmt.Sprintf("%s|%d-%d", userID, year, int(month))

	summary, found := s.summaryCache.Get(cacheKey)
	if !found {
		var err error
		summary, err = s.service.Summary(r.Context(), userID, year, month)
		if err != nil {
			slog.ErrorContext(r.Context(), "Monthly summary failed",
				"error", err, "user_id", userID, "year", year, "month", int(month))
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}
		s.summaryCache.Set(cacheKey, summary)
	}

	out := summaryResponse{
		Year:             summary.Year,
		Month:            int(summary.Month),
		TotalIncome:      summary.TotalIncome,
		TotalExpense:     summary.TotalExpense,
		Net:              summary.Net,
		TransactionCount: summary.TransactionCount,
		ByCategory:       make([]categoryTotalResponse, 0, len(summary.ByCategory)),
		Balances:         make([]accountResponse, 0, len(summary.Balances)),
	}
	for _, ct := range summary.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalResponse{
			Kind:     string(ct.Kind),
			Category: ct.Category,
			Total:    ct.Total,
			Count:    ct.Count,
		})
	}
	for _, acc := range summary.Balances {
		out.Balances = append(out.Balances, accountResponse{Name: acc.Name, Kind: string(acc.Kind), Balance: acc.Balance})
	}
	writeJSON(w, http.StatusOK, out)
}

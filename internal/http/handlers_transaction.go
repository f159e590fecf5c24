package http

import (
	"net/http"

	"finwise/internal/core"
)

type createTransactionRequest struct {
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
		return
	}

	created, err := s.transactions.Create(r.Context(), core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        core.TransactionType(req.Type),
		CategoryID:  req.CategoryID,
		Description: sanitizeInput(req.Description),
		Date:        date,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.dashboard.InvalidateUser(userID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

// handleListTransactions returns the user's ledger, newest first. Optional
// year and month query parameters narrow the list to one calendar month.
// Without a session it returns an empty list rather than an error.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUser(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var transactions []core.Transaction
	if year, month, ok := parseYearMonth(r); ok {
		transactions, err = s.transactions.ListByMonth(r.Context(), userID, year, month)
	} else {
		transactions, err = s.transactions.List(r.Context(), userID)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.transactions.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleClearData wipes the user's transactions and debts. The account and
// the seeded categories stay.
func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.transactions.ClearData(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.dashboard.InvalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

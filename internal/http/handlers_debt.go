package http

import (
	"net/http"
	"time"

	"finwise/internal/core"
)

type debtRequest struct {
	PersonName  string `json:"person_name"`
	Amount      string `json:"amount"`
	Direction   string `json:"direction"`
	DueDate     string `json:"due_date"`
	PayDate     string `json:"pay_date"`
	Description string `json:"description"`
}

type markPaidRequest struct {
	PayDate string `json:"pay_date"`
}

func (s *Server) debtFromRequest(req debtRequest, userID int64) (core.Debt, int, string) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Debt{}, http.StatusBadRequest, "invalid amount"
	}

	d := core.Debt{
		UserID:      userID,
		PersonName:  sanitizeInput(req.PersonName),
		Amount:      amount,
		Direction:   core.DebtDirection(req.Direction),
		Description: sanitizeInput(req.Description),
	}

	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			return core.Debt{}, http.StatusBadRequest, "invalid due_date, use YYYY-MM-DD"
		}
		d.DueDate = due
	}
	if req.PayDate != "" {
		pay, err := parseDate(req.PayDate)
		if err != nil {
			return core.Debt{}, http.StatusBadRequest, "invalid pay_date, use YYYY-MM-DD"
		}
		d.PayDate = &pay
	}

	return d, 0, ""
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, status, msg := s.debtFromRequest(req, userID)
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	created, err := s.debts.Create(r.Context(), d)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.dashboard.InvalidateUser(userID)
	writeJSON(w, http.StatusCreated, toDebtJSON(created, time.Now()))
}

// handleListDebts returns the user's debts; an empty list without a session.
func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUser(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	debts, err := s.debts.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtListJSON(debts, time.Now()))
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	debtID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := s.debts.Get(r.Context(), userID, debtID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtJSON(d, time.Now()))
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	debtID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, status, msg := s.debtFromRequest(req, userID)
	if status != 0 {
		writeError(w, status, msg)
		return
	}
	d.ID = debtID

	updated, err := s.debts.Update(r.Context(), d)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.dashboard.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, toDebtJSON(updated, time.Now()))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	debtID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.debts.Delete(r.Context(), userID, debtID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.dashboard.InvalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkDebtPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	debtID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	// Body is optional; an empty pay date means "paid now".
	var payDate time.Time
	if r.ContentLength > 0 {
		var req markPaidRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.PayDate != "" {
			payDate, err = parseDate(req.PayDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid pay_date, use YYYY-MM-DD")
				return
			}
		}
	}

	d, err := s.debts.MarkPaid(r.Context(), userID, debtID, payDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.dashboard.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, toDebtJSON(d, time.Now()))
}

func (s *Server) handleMarkDebtUnpaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	debtID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := s.debts.MarkUnpaid(r.Context(), userID, debtID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.dashboard.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, toDebtJSON(d, time.Now()))
}

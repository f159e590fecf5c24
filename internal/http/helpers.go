package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finwise/internal/auth"
	"finwise/internal/core"
	"finwise/internal/services"
	"finwise/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors to HTTP statuses. Validation failures
// are client errors; anything unrecognized is a 500 with a generic body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrDebtNotFound):
		writeError(w, http.StatusNotFound, "debt not found")
	case errors.Is(err, storage.ErrNoCurrentUser):
		writeError(w, http.StatusUnauthorized, "not logged in")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, core.ErrEmptyPersonName),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrShortPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID extracts the {id} segment as a positive int64.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseDate parses a date in YYYY-MM-DD or RFC 3339 form.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseYearMonth reads optional year and month query parameters. The bool is
// false unless both are present and valid.
func parseYearMonth(r *http.Request) (int, time.Month, bool) {
	y := strings.TrimSpace(r.URL.Query().Get("year"))
	m := strings.TrimSpace(r.URL.Query().Get("month"))
	if y == "" || m == "" {
		return 0, 0, false
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// currentUser resolves the logged-in user id, 0 when nobody is logged in.
func (s *Server) currentUser(r *http.Request) (int64, error) {
	return s.auth.CurrentUserID(r.Context())
}

// requireUser resolves the session or writes a 401. The bool reports whether
// the handler may proceed.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := s.currentUser(r)
	if err != nil {
		writeServiceError(w, r, err)
		return 0, false
	}
	if userID <= 0 {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return 0, false
	}
	return userID, true
}

package http

import (
	"net/http"
)

// handleDashboard returns balance, daily safe-to-spend and monthly net.
// Without a session every figure is zero.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUser(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	m, err := s.dashboard.Metrics(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardJSON(m))
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUser(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	f, err := s.dashboard.Forecast(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toForecastJSON(f))
}

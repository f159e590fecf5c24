package http

import (
	"time"

	"finwise/internal/core"
	"finwise/internal/services"
)

// Wire representations. Amounts travel as decimal strings, dates as RFC 3339.
type (
	transactionJSON struct {
		ID          int64  `json:"id"`
		Amount      string `json:"amount"`
		Type        string `json:"type"`
		CategoryID  int64  `json:"category_id,omitempty"`
		Description string `json:"description,omitempty"`
		Date        string `json:"date"`
		CreatedAt   string `json:"created_at,omitempty"`
	}

	debtJSON struct {
		ID          int64   `json:"id"`
		PersonName  string  `json:"person_name"`
		Amount      string  `json:"amount"`
		Direction   string  `json:"direction"`
		DueDate     string  `json:"due_date"`
		PayDate     *string `json:"pay_date,omitempty"`
		Description string  `json:"description,omitempty"`
		Paid        bool    `json:"paid"`
		Overdue     bool    `json:"overdue"`
		CreatedAt   string  `json:"created_at,omitempty"`
	}

	categoryJSON struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Type  string `json:"type"`
		Color string `json:"color"`
		Icon  string `json:"icon,omitempty"`
	}

	dashboardJSON struct {
		Balance          string `json:"balance"`
		SafeToSpendDaily string `json:"safe_to_spend_daily"`
		MonthlyNet       string `json:"monthly_net"`
	}

	forecastJSON struct {
		CurrentBalance    string `json:"current_balance"`
		ProjectedBalance  string `json:"projected_balance"`
		ProjectedIncome   string `json:"projected_income"`
		ProjectedExpenses string `json:"projected_expenses"`
		ProjectedNet      string `json:"projected_net"`
		AvgDailyIncome    string `json:"avg_daily_income"`
		AvgDailyExpense   string `json:"avg_daily_expense"`
		Insight           string `json:"insight"`
		Message           string `json:"message"`
	}
)

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Amount:      t.Amount.StringFixed(2),
		Type:        string(t.Type),
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Date:        t.Date.Format(time.RFC3339),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func toDebtJSON(d core.Debt, now time.Time) debtJSON {
	out := debtJSON{
		ID:          d.ID,
		PersonName:  d.PersonName,
		Amount:      d.Amount.StringFixed(2),
		Direction:   string(d.Direction),
		DueDate:     d.DueDate.Format(time.RFC3339),
		Description: d.Description,
		Paid:        d.Paid,
		Overdue:     d.IsOverdue(now),
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
	if d.PayDate != nil {
		payDate := d.PayDate.Format(time.RFC3339)
		out.PayDate = &payDate
	}
	return out
}

func toDebtListJSON(debts []core.Debt, now time.Time) []debtJSON {
	out := make([]debtJSON, 0, len(debts))
	for _, d := range debts {
		out = append(out, toDebtJSON(d, now))
	}
	return out
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:    c.ID,
		Name:  c.Name,
		Type:  string(c.Type),
		Color: c.Color,
		Icon:  c.Icon,
	}
}

func toDashboardJSON(m services.DashboardMetrics) dashboardJSON {
	return dashboardJSON{
		Balance:          m.Balance.StringFixed(2),
		SafeToSpendDaily: m.SafeToSpendDaily.StringFixed(2),
		MonthlyNet:       m.MonthlyNet.StringFixed(2),
	}
}

func toForecastJSON(r services.ForecastResult) forecastJSON {
	f := r.Forecast
	return forecastJSON{
		CurrentBalance:    f.CurrentBalance.StringFixed(2),
		ProjectedBalance:  f.ProjectedBalance.StringFixed(2),
		ProjectedIncome:   f.ProjectedIncome.StringFixed(2),
		ProjectedExpenses: f.ProjectedExpenses.StringFixed(2),
		ProjectedNet:      f.ProjectedNet.StringFixed(2),
		AvgDailyIncome:    f.AvgDailyIncome.StringFixed(2),
		AvgDailyExpense:   f.AvgDailyExpense.StringFixed(2),
		Insight:           string(r.Insight),
		Message:           r.Message,
	}
}

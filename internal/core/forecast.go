package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SevenDayForecast projects the next week of transaction-driven cash flow from
// trailing 30-day averages. Debts are deliberately excluded from the baseline.
type SevenDayForecast struct {
	CurrentBalance    decimal.Decimal
	ProjectedBalance  decimal.Decimal
	ProjectedIncome   decimal.Decimal
	ProjectedExpenses decimal.Decimal
	ProjectedNet      decimal.Decimal
	AvgDailyIncome    decimal.Decimal
	AvgDailyExpense   decimal.Decimal
}

// InsightLevel is the narrative classification of a forecast.
type InsightLevel string

const (
	InsightStrongSavings InsightLevel = "strong_savings"
	InsightModestSavings InsightLevel = "modest_savings"
	InsightOverspending  InsightLevel = "overspending_warning"
	InsightBreakingEven  InsightLevel = "breaking_even"
)

var (
	insightStrongThreshold  = decimal.NewFromInt(100)
	insightWarningThreshold = decimal.NewFromInt(-50)
)

const trailingWindow = 30 * 24 * time.Hour

// ComputeSevenDayForecast projects the coming week. Daily averages come from
// transactions dated within the trailing 30 days of now, always divided by a
// fixed 30; with no recent transactions both averages are zero and the
// projected balance equals the current balance.
func ComputeSevenDayForecast(transactions []Transaction, now time.Time) SevenDayForecast {
	currentBalance := ComputeBalance(transactions, nil, now)

	windowStart := now.Add(-trailingWindow)
	totalIncome := decimal.Zero
	totalExpenses := decimal.Zero
	for _, t := range transactions {
		if t.Date.Before(windowStart) {
			continue
		}
		if t.Type == Income {
			totalIncome = totalIncome.Add(t.Amount)
		} else {
			totalExpenses = totalExpenses.Add(t.Amount)
		}
	}

	avgDailyIncome := totalIncome.Div(averagingDays)
	avgDailyExpense := totalExpenses.Div(averagingDays)

	projectedIncome := avgDailyIncome.Mul(daysPerWeek)
	projectedExpenses := avgDailyExpense.Mul(daysPerWeek)
	projectedNet := projectedIncome.Sub(projectedExpenses)

	return SevenDayForecast{
		CurrentBalance:    currentBalance,
		ProjectedBalance:  currentBalance.Add(projectedNet),
		ProjectedIncome:   projectedIncome,
		ProjectedExpenses: projectedExpenses,
		ProjectedNet:      projectedNet,
		AvgDailyIncome:    avgDailyIncome,
		AvgDailyExpense:   avgDailyExpense,
	}
}

// SelectForecastInsight classifies a forecast with fixed thresholds, checked
// in priority order with strict comparisons: net above 100 is strong savings,
// above 0 modest savings, below -50 an overspending warning, anything else
// breaking even. Exact ties fall through to the next branch.
func SelectForecastInsight(f SevenDayForecast) InsightLevel {
	switch {
	case f.ProjectedNet.GreaterThan(insightStrongThreshold):
		return InsightStrongSavings
	case f.ProjectedNet.IsPositive():
		return InsightModestSavings
	case f.ProjectedNet.LessThan(insightWarningThreshold):
		return InsightOverspending
	default:
		return InsightBreakingEven
	}
}

// Message renders the narrative text for an insight, interpolating the
// forecast's projected net.
func (l InsightLevel) Message(f SevenDayForecast) string {
	net := f.ProjectedNet.Abs().StringFixed(2)
	switch l {
	case InsightStrongSavings:
		return "Great job! You're on track to save $" + net + " this week. Consider putting some into savings!"
	case InsightModestSavings:
		return "You're on track to save $" + net + " this week. Keep up the good financial habits!"
	case InsightOverspending:
		return "Watch out! You're projected to spend $" + net + " more than you earn this week. Consider reviewing your expenses."
	default:
		return "Based on your spending patterns, you're breaking even this week. Look for small ways to save more!"
	}
}

package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

const (
	baseCreditScore       = 650
	MinCreditScore        = 300
	MaxCreditScore        = 850
	connectedAccountBonus = 10
	RecentTransactionsMax = 10
)

var (
	hundred      = decimal.NewFromInt(100)
	savings10    = decimal.NewFromInt(10)
	savings20    = decimal.NewFromInt(20)
	savings30    = decimal.NewFromInt(30)
	income30k    = decimal.NewFromInt(30000)
	income50k    = decimal.NewFromInt(50000)
	expenseRatio = struct{ high, severe decimal.Decimal }{decimal.NewFromInt(70), decimal.NewFromInt(80)}
)

// ComputeSummary derives the dashboard overview from one month of transactions.
//
// totalTransactions is the user's all-time count; when it is zero the fixed
// empty summary is returned and no score is computed. The function has no
// side effects and never fails.
func ComputeSummary(transactions []model.Transaction, connectedAccounts int, totalTransactions int64) model.ScoreSummary {
	if totalTransactions == 0 {
		return model.EmptySummary()
	}

	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range transactions {
		switch t.Type {
		case model.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case model.TransactionTypeExpense:
			expenses = expenses.Add(t.Amount)
		}
	}

	savingsRate, ratio := decimal.Zero, decimal.Zero
	if income.IsPositive() {
		savingsRate = income.Sub(expenses).Div(income).Mul(hundred)
		ratio = expenses.Div(income).Mul(hundred)
	}

	score := baseCreditScore

	switch {
	case savingsRate.GreaterThan(savings30):
		score += 100
	case savingsRate.GreaterThan(savings20):
		score += 70
	case savingsRate.GreaterThan(savings10):
		score += 40
	}

	switch {
	case income.GreaterThan(income50k):
		score += 50
	case income.GreaterThan(income30k):
		score += 30
	}

	switch {
	case ratio.GreaterThan(expenseRatio.severe):
		score -= 50
	case ratio.GreaterThan(expenseRatio.high):
		score -= 30
	}

	score += connectedAccounts * connectedAccountBonus

	return model.ScoreSummary{
		CreditScore:        clampScore(score),
		MonthlyIncome:      income.InexactFloat64(),
		MonthlyExpenses:    expenses.InexactFloat64(),
		SavingsRate:        savingsRate.InexactFloat64(),
		ConnectedAccounts:  connectedAccounts,
		RecentTransactions: recentTransactions(transactions, RecentTransactionsMax),
		HasTransactions:    true,
	}
}

// recentTransactions returns up to n transactions, newest first, without
// touching the caller's slice.
func recentTransactions(transactions []model.Transaction, n int) []model.Transaction {
	sorted := make([]model.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func clampScore(score int) int {
	if score < MinCreditScore {
		return MinCreditScore
	}
	if score > MaxCreditScore {
		return MaxCreditScore
	}
	return score
}

// RiskLevel buckets a score for display.
func RiskLevel(score int) string {
	switch {
	case score >= 750:
		return "Low Risk"
	case score >= 650:
		return "Medium Risk"
	default:
		return "High Risk"
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoreSummary is the dashboard overview for the current month.
type ScoreSummary struct {
	CreditScore        int           `json:"creditScore"`
	MonthlyIncome      float64       `json:"monthlyIncome"`
	MonthlyExpenses    float64       `json:"monthlyExpenses"`
	SavingsRate        float64       `json:"savingsRate"`
	ConnectedAccounts  int           `json:"connectedAccounts"`
	RecentTransactions []Transaction `json:"recentTransactions"`
	HasTransactions    bool          `json:"hasTransactions"`
}

// EmptySummary is returned for users who have never recorded a transaction.
func EmptySummary() ScoreSummary {
	return ScoreSummary{RecentTransactions: []Transaction{}}
}

type ScoreSnapshot struct {
	UserID          uuid.UUID `json:"-"`
	Month           string    `json:"month"`
	CreditScore     int       `json:"creditScore"`
	MonthlyIncome   float64   `json:"monthlyIncome"`
	MonthlyExpenses float64   `json:"monthlyExpenses"`
	TakenAt         time.Time `json:"takenAt"`
}

// ScoreFeatures are the long-run behaviour metrics behind the heuristic score.
type ScoreFeatures struct {
	AvgMonthlyIncome     float64 `json:"avg_monthly_income"`
	AvgMonthlyExpense    float64 `json:"avg_monthly_expense"`
	SavingsRate          float64 `json:"savings_rate"`
	ExpenseToIncomeRatio float64 `json:"expense_to_income_ratio"`
	NumLoanPayments      int     `json:"num_loan_payments"`
	PctSpendOnFood       float64 `json:"pct_spend_on_food"`
	TotalTransactions    int     `json:"total_transactions"`
}

type ScoreReport struct {
	Score     int           `json:"score"`
	RiskLevel string        `json:"riskLevel"`
	Features  ScoreFeatures `json:"features"`
}

type SimulationInput struct {
	MissedPayments   int     `json:"missedPayments"`
	IncomeChange     float64 `json:"incomeChange"`
	SpendingIncrease float64 `json:"spendingIncrease"`
}

type SimulationResult struct {
	SimulatedScore int           `json:"simulatedScore"`
	RiskLevel      string        `json:"riskLevel"`
	Features       ScoreFeatures `json:"features"`
}

// CategorySpending is one slice of a month's expense breakdown.
type CategorySpending struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type MonthlyTrend struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

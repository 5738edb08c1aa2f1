package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

var (
	loanKeywords = []string{"emi", "loan", "equated", "instalment", "installment"}
	foodKeywords = []string{"zomato", "swiggy", "dominos", "restaurant", "cafe", "mcdonald", "food"}
)

// ComputeFeatures summarises a user's whole history. Income and expense
// averages are taken over the months in which that kind of transaction occurs.
func ComputeFeatures(transactions []model.Transaction) model.ScoreFeatures {
	if len(transactions) == 0 {
		return model.ScoreFeatures{}
	}

	incomeByMonth := map[string]decimal.Decimal{}
	expenseByMonth := map[string]decimal.Decimal{}
	foodSpend, totalSpend := decimal.Zero, decimal.Zero
	loans := 0

	for _, t := range transactions {
		month := t.Date.Format("2006-01")
		desc := strings.ToLower(t.Description)

		if containsAny(desc, loanKeywords) {
			loans++
		}

		switch t.Type {
		case model.TransactionTypeIncome:
			incomeByMonth[month] = incomeByMonth[month].Add(t.Amount)
		case model.TransactionTypeExpense:
			expenseByMonth[month] = expenseByMonth[month].Add(t.Amount)
			totalSpend = totalSpend.Add(t.Amount)
			if containsAny(desc, foodKeywords) {
				foodSpend = foodSpend.Add(t.Amount)
			}
		}
	}

	f := model.ScoreFeatures{
		AvgMonthlyIncome:  monthlyAverage(incomeByMonth),
		AvgMonthlyExpense: monthlyAverage(expenseByMonth),
		NumLoanPayments:   loans,
		TotalTransactions: len(transactions),
	}
	if totalSpend.IsPositive() {
		f.PctSpendOnFood = foodSpend.Div(totalSpend).Mul(hundred).InexactFloat64()
	}
	recomputeDerived(&f)
	return f
}

// HeuristicScore maps features to a 300-850 score.
func HeuristicScore(f model.ScoreFeatures) int {
	score := 600
	// any savings term below -1000 already lands on the floor
	score += scoreTerm(f.SavingsRate*2, -1000, 200)
	score += scoreTerm((1-f.ExpenseToIncomeRatio)*50, -100, 50)
	score += 50 - min(10, max(0, f.NumLoanPayments))*10
	return clampScore(score)
}

// scoreTerm bounds v before the integer conversion. NaN contributes nothing.
func scoreTerm(v, lo, hi float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(lo, math.Min(hi, v)))
}

// Simulate applies a what-if scenario to existing features.
func Simulate(f model.ScoreFeatures, in model.SimulationInput) model.ScoreFeatures {
	f.AvgMonthlyIncome = max(0, f.AvgMonthlyIncome+in.IncomeChange)
	f.NumLoanPayments += in.MissedPayments
	f.AvgMonthlyExpense *= 1 + in.SpendingIncrease/100
	recomputeDerived(&f)
	return f
}

func recomputeDerived(f *model.ScoreFeatures) {
	f.SavingsRate, f.ExpenseToIncomeRatio = 0, 0
	if f.AvgMonthlyIncome > 0 {
		f.SavingsRate = (f.AvgMonthlyIncome - f.AvgMonthlyExpense) / f.AvgMonthlyIncome * 100
		f.ExpenseToIncomeRatio = f.AvgMonthlyExpense / f.AvgMonthlyIncome
	}
}

func monthlyAverage(byMonth map[string]decimal.Decimal) float64 {
	if len(byMonth) == 0 {
		return 0
	}
	total := decimal.Zero
	for _, v := range byMonth {
		total = total.Add(v)
	}
	return total.Div(decimal.NewFromInt(int64(len(byMonth)))).InexactFloat64()
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

const maxMissedPayments = 1000

func validateSimulation(in model.SimulationInput) error {
	if in.MissedPayments < 0 || in.MissedPayments > maxMissedPayments {
		return fmt.Errorf("missedPayments must be between 0 and %d", maxMissedPayments)
	}
	if in.SpendingIncrease < -100 {
		return fmt.Errorf("spendingIncrease must be at least -100")
	}
	return nil
}

// FeatureService serves the long-run score and the what-if simulator.
type FeatureService struct {
	userRepo        UserStore
	transactionRepo TransactionStore
	logger          *logrus.Logger
}

func NewFeatureService(userRepo UserStore, transactionRepo TransactionStore, logger *logrus.Logger) *FeatureService {
	return &FeatureService{userRepo: userRepo, transactionRepo: transactionRepo, logger: logger}
}

func (s *FeatureService) features(ctx context.Context, userID uuid.UUID) (model.ScoreFeatures, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return model.ScoreFeatures{}, err
	}
	transactions, err := s.transactionRepo.Find(ctx, model.TransactionFilter{UserID: userID})
	if err != nil {
		return model.ScoreFeatures{}, fmt.Errorf("load transaction history: %w", err)
	}
	return ComputeFeatures(transactions), nil
}

func (s *FeatureService) Score(ctx context.Context, userID uuid.UUID) (*model.ScoreReport, error) {
	f, err := s.features(ctx, userID)
	if err != nil {
		return nil, err
	}
	score := HeuristicScore(f)

	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"score":        score,
		"transactions": f.TotalTransactions,
	}).Info("heuristic score computed")

	return &model.ScoreReport{Score: score, RiskLevel: RiskLevel(score), Features: f}, nil
}

func (s *FeatureService) Simulate(ctx context.Context, userID uuid.UUID, in model.SimulationInput) (*model.SimulationResult, error) {
	if err := validateSimulation(in); err != nil {
		return nil, &ValidationError{Err: err}
	}
	f, err := s.features(ctx, userID)
	if err != nil {
		return nil, err
	}
	simulated := Simulate(f, in)
	score := HeuristicScore(simulated)

	s.logger.WithFields(logrus.Fields{
		"user_id":           userID,
		"missed_payments":   in.MissedPayments,
		"income_change":     in.IncomeChange,
		"spending_increase": in.SpendingIncrease,
		"simulated_score":   score,
	}).Info("score simulation computed")

	return &model.SimulationResult{SimulatedScore: score, RiskLevel: RiskLevel(score), Features: simulated}, nil
}

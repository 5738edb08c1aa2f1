package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/export"
	"github.com/Wodenvase/BharatLedger/internal/model"
)

const MaxTrendMonths = 24

type ReportService struct {
	userRepo        UserStore
	transactionRepo TransactionStore
	now             func() time.Time
	logger          *logrus.Logger
}

func NewReportService(userRepo UserStore, transactionRepo TransactionStore, logger *logrus.Logger) *ReportService {
	return &ReportService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		now:             time.Now,
		logger:          logger,
	}
}

// CategoryBreakdown returns the month's expense spending per category.
func (s *ReportService) CategoryBreakdown(ctx context.Context, userID uuid.UUID, month time.Time) ([]model.CategorySpending, error) {
	start, next := MonthBounds(month)
	transactions, err := s.transactionRepo.Find(ctx, model.TransactionFilter{
		UserID:    userID,
		Type:      model.TransactionTypeExpense,
		StartDate: &start,
		EndBefore: &next,
	})
	if err != nil {
		return nil, fmt.Errorf("load month expenses: %w", err)
	}
	return categoryBreakdown(transactions), nil
}

// MonthlyTrend returns income and expenses for the last n months, oldest first.
func (s *ReportService) MonthlyTrend(ctx context.Context, userID uuid.UUID, months int) ([]model.MonthlyTrend, error) {
	if months < 1 || months > MaxTrendMonths {
		return nil, &ValidationError{Err: fmt.Errorf("months must be between 1 and %d", MaxTrendMonths)}
	}
	current, next := MonthBounds(s.now())
	first := current.AddDate(0, -(months - 1), 0)

	transactions, err := s.transactionRepo.Find(ctx, model.TransactionFilter{
		UserID:    userID,
		StartDate: &first,
		EndBefore: &next,
	})
	if err != nil {
		return nil, fmt.Errorf("load trend transactions: %w", err)
	}
	return monthlyTrend(transactions, first, months), nil
}

// Statement collects a period of transactions for export.
func (s *ReportService) Statement(ctx context.Context, userID uuid.UUID, from, to time.Time) (*export.Statement, error) {
	if from.After(to) {
		return nil, &ValidationError{Err: fmt.Errorf("from must not be after to")}
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	end := to.AddDate(0, 0, 1)
	transactions, err := s.transactionRepo.Find(ctx, model.TransactionFilter{
		UserID:    userID,
		StartDate: &from,
		EndBefore: &end,
	})
	if err != nil {
		return nil, fmt.Errorf("load statement transactions: %w", err)
	}

	st := &export.Statement{
		OwnerName:    user.Name,
		OwnerEmail:   user.Email,
		From:         from,
		To:           to,
		Transactions: transactions,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		GeneratedAt:  s.now(),
	}
	for _, t := range transactions {
		if t.Type == model.TransactionTypeIncome {
			st.TotalIncome = st.TotalIncome.Add(t.Amount)
		} else {
			st.TotalExpense = st.TotalExpense.Add(t.Amount)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"from":         from.Format("2006-01-02"),
		"to":           to.Format("2006-01-02"),
		"transactions": len(transactions),
	}).Info("statement prepared")

	return st, nil
}

func categoryBreakdown(transactions []model.Transaction) []model.CategorySpending {
	byCategory := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, t := range transactions {
		if t.Type != model.TransactionTypeExpense {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		byCategory[cat] = byCategory[cat].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	result := make([]model.CategorySpending, 0, len(byCategory))
	for cat, amount := range byCategory {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = amount.Div(total).Mul(hundred).Round(2)
		}
		result = append(result, model.CategorySpending{
			Category:   cat,
			Amount:     amount.InexactFloat64(),
			Percentage: pct.InexactFloat64(),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Amount != result[j].Amount {
			return result[i].Amount > result[j].Amount
		}
		return result[i].Category < result[j].Category
	})
	return result
}

func monthlyTrend(transactions []model.Transaction, first time.Time, months int) []model.MonthlyTrend {
	type totals struct{ income, expenses decimal.Decimal }
	byMonth := map[string]*totals{}
	keys := make([]string, 0, months)
	for i := 0; i < months; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		keys = append(keys, key)
		byMonth[key] = &totals{income: decimal.Zero, expenses: decimal.Zero}
	}

	for _, t := range transactions {
		m, ok := byMonth[t.Date.In(first.Location()).Format("2006-01")]
		if !ok {
			continue
		}
		switch t.Type {
		case model.TransactionTypeIncome:
			m.income = m.income.Add(t.Amount)
		case model.TransactionTypeExpense:
			m.expenses = m.expenses.Add(t.Amount)
		}
	}

	result := make([]model.MonthlyTrend, 0, months)
	for _, key := range keys {
		m := byMonth[key]
		result = append(result, model.MonthlyTrend{
			Month:    key,
			Income:   m.income.InexactFloat64(),
			Expenses: m.expenses.InexactFloat64(),
		})
	}
	return result
}

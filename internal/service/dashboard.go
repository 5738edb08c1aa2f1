package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

const snapshotHistoryLimit = 12

type DashboardService struct {
	userRepo        UserStore
	accountRepo     AccountStore
	transactionRepo TransactionStore
	snapshotRepo    SnapshotStore
	now             func() time.Time
	logger          *logrus.Logger
}

func NewDashboardService(
	userRepo UserStore,
	accountRepo AccountStore,
	transactionRepo TransactionStore,
	snapshotRepo SnapshotStore,
	logger *logrus.Logger,
) *DashboardService {
	return &DashboardService{
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		snapshotRepo:    snapshotRepo,
		now:             time.Now,
		logger:          logger,
	}
}

// MonthBounds returns the first instant of t's calendar month and the first
// instant of the next one, as a half-open range.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Overview builds the current-month summary for the dashboard.
func (s *DashboardService) Overview(ctx context.Context, userID uuid.UUID) (model.ScoreSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return model.ScoreSummary{}, err
	}
	return s.overview(ctx, userID, s.now())
}

func (s *DashboardService) overview(ctx context.Context, userID uuid.UUID, at time.Time) (model.ScoreSummary, error) {
	total, err := s.transactionRepo.CountAll(ctx, userID)
	if err != nil {
		return model.ScoreSummary{}, fmt.Errorf("count transactions: %w", err)
	}
	if total == 0 {
		s.logger.WithField("user_id", userID).Debug("no transactions yet, returning empty overview")
		return model.EmptySummary(), nil
	}

	start, next := MonthBounds(at)
	transactions, err := s.transactionRepo.Find(ctx, model.TransactionFilter{
		UserID:    userID,
		StartDate: &start,
		EndBefore: &next,
	})
	if err != nil {
		return model.ScoreSummary{}, fmt.Errorf("load month transactions: %w", err)
	}

	connected, err := s.accountRepo.CountConnected(ctx, userID)
	if err != nil {
		return model.ScoreSummary{}, fmt.Errorf("count connected accounts: %w", err)
	}

	summary := ComputeSummary(transactions, connected, total)

	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"score":        summary.CreditScore,
		"month_count":  len(transactions),
		"total_count":  total,
		"connected":    connected,
		"savings_rate": summary.SavingsRate,
	}).Info("dashboard overview computed")

	return summary, nil
}

func (s *DashboardService) History(ctx context.Context, userID uuid.UUID) ([]model.ScoreSnapshot, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	snapshots, err := s.snapshotRepo.ListForUser(ctx, userID, snapshotHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load score history: %w", err)
	}
	return snapshots, nil
}

// SnapshotAll stores this month's score for every user with transactions.
// Failures for one user are logged and do not stop the run.
func (s *DashboardService) SnapshotAll(ctx context.Context) error {
	users, err := s.userRepo.ListWithTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	at := s.now()
	month := at.Format("2006-01")
	failed := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary, err := s.overview(ctx, userID, at)
		if err != nil {
			failed++
			s.logger.WithError(err).WithField("user_id", userID).Error("score snapshot failed")
			continue
		}
		snap := &model.ScoreSnapshot{
			UserID:          userID,
			Month:           month,
			CreditScore:     summary.CreditScore,
			MonthlyIncome:   summary.MonthlyIncome,
			MonthlyExpenses: summary.MonthlyExpenses,
			TakenAt:         at,
		}
		if err := s.snapshotRepo.Upsert(ctx, snap); err != nil {
			failed++
			s.logger.WithError(err).WithField("user_id", userID).Error("score snapshot not stored")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"month":  month,
		"users":  len(users),
		"failed": failed,
	}).Info("score snapshots taken")

	if failed > 0 {
		return fmt.Errorf("%d of %d score snapshots failed", failed, len(users))
	}
	return nil
}

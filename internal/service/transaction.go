package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 1000
)

type TransactionService struct {
	transactionRepo TransactionStore
	logger          *logrus.Logger
}

func NewTransactionService(transactionRepo TransactionStore, logger *logrus.Logger) *TransactionService {
	return &TransactionService{transactionRepo: transactionRepo, logger: logger}
}

// List returns one page of the filtered transactions plus totals over the whole filter.
func (s *TransactionService) List(ctx context.Context, filter model.TransactionFilter) (*model.TransactionPage, error) {
	if filter.Limit <= 0 || filter.Limit > MaxPageLimit {
		return nil, &ValidationError{Err: fmt.Errorf("limit must be between 1 and %d", MaxPageLimit)}
	}
	if filter.Offset < 0 {
		return nil, &ValidationError{Err: fmt.Errorf("offset must not be negative")}
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, &ValidationError{Err: fmt.Errorf("startDate must not be after endDate")}
	}
	if filter.StartDate != nil && filter.EndBefore != nil && !filter.StartDate.Before(*filter.EndBefore) {
		return nil, &ValidationError{Err: fmt.Errorf("startDate must not be after endDate")}
	}

	var (
		page  []model.Transaction
		total int64
		sum   decimal.Decimal
	)

	totals := filter
	totals.Limit, totals.Offset = 0, 0

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.transactionRepo.Find(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.transactionRepo.Count(gctx, totals)
		return err
	})
	g.Go(func() error {
		var err error
		sum, err = s.transactionRepo.SumAmount(gctx, totals)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithField("user_id", filter.UserID).Error("transaction listing failed")
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	if page == nil {
		page = []model.Transaction{}
	}

	return &model.TransactionPage{
		Transactions: page,
		Total:        total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
		TotalAmount:  sum.InexactFloat64(),
		HasMore:      int64(filter.Offset+len(page)) < total,
	}, nil
}

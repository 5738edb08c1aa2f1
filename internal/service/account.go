package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type AccountService struct {
	accountRepo AccountStore
	logger      *logrus.Logger
}

func NewAccountService(accountRepo AccountStore, logger *logrus.Logger) *AccountService {
	return &AccountService{accountRepo: accountRepo, logger: logger}
}

func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, sourceName string) (*model.Account, error) {
	sourceName = strings.TrimSpace(sourceName)
	if sourceName == "" {
		return nil, &ValidationError{Err: fmt.Errorf("sourceName is required")}
	}

	now := time.Now()
	account := &model.Account{
		ID:         uuid.New(),
		UserID:     userID,
		SourceName: sourceName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		s.logger.WithError(err).Error("failed to create account")
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": account.ID,
		"source":     sourceName,
	}).Info("account created")
	return account, nil
}

func (s *AccountService) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error) {
	accounts, err := s.accountRepo.GetUserAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

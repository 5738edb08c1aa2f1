package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/storage"
)

// Notifier tells a user that one of their statements has been processed.
type Notifier interface {
	SendStatementProcessed(email string, upload *model.Upload) error
}

type IngestService struct {
	userRepo   UserStore
	uploadRepo UploadStore
	blobs      storage.BlobStore
	notifier   Notifier
	logger     *logrus.Logger
}

func NewIngestService(
	userRepo UserStore,
	uploadRepo UploadStore,
	blobs storage.BlobStore,
	notifier Notifier,
	logger *logrus.Logger,
) *IngestService {
	return &IngestService{
		userRepo:   userRepo,
		uploadRepo: uploadRepo,
		blobs:      blobs,
		notifier:   notifier,
		logger:     logger,
	}
}

// Process imports the transactions of a pending upload. A statement that
// cannot be parsed marks the upload failed and is not reported as an error;
// a returned error means the work can be retried.
func (s *IngestService) Process(ctx context.Context, uploadID uuid.UUID) (*model.Upload, error) {
	upload, err := s.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if upload.Status != model.UploadStatusPending {
		s.logger.WithFields(logrus.Fields{
			"upload_id": uploadID,
			"status":    upload.Status,
		}).Info("upload already handled, skipping")
		return upload, nil
	}

	logger := s.logger.WithFields(logrus.Fields{
		"upload_id":  upload.ID,
		"user_id":    upload.UserID,
		"account_id": upload.AccountID,
	})

	blob, err := s.blobs.Open(ctx, upload.BlobKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.fail(ctx, upload, err)
		}
		return nil, fmt.Errorf("open statement: %w", err)
	}
	parsed, err := ParseStatement(blob)
	blob.Close()
	if err != nil {
		logger.WithError(err).Warn("statement rejected")
		return s.fail(ctx, upload, err)
	}

	now := time.Now()
	accountID := upload.AccountID
	transactions := make([]model.Transaction, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		t := model.Transaction{
			ID:          uuid.New(),
			UserID:      upload.UserID,
			AccountID:   &accountID,
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			Type:        row.Type,
			Category:    row.Category,
			CreatedAt:   now,
		}
		if row.Reference != "" {
			ref := row.Reference
			t.Reference = &ref
		}
		transactions = append(transactions, t)
	}

	upload.Status = model.UploadStatusProcessed
	upload.Imported = len(transactions)
	upload.Skipped = parsed.Skipped
	upload.ProcessedAt = &now
	if err := s.uploadRepo.Complete(ctx, upload, transactions); err != nil {
		if errors.Is(err, model.ErrUploadHandled) {
			logger.Info("upload completed concurrently, skipping")
			return s.uploadRepo.GetByID(ctx, upload.ID)
		}
		logger.WithError(err).Error("failed to store statement transactions")
		return nil, fmt.Errorf("store transactions: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"imported": upload.Imported,
		"skipped":  upload.Skipped,
	}).Info("statement ingested")

	s.notify(ctx, upload)
	return upload, nil
}

func (s *IngestService) fail(ctx context.Context, upload *model.Upload, cause error) (*model.Upload, error) {
	now := time.Now()
	msg := cause.Error()
	upload.Status = model.UploadStatusFailed
	upload.Error = &msg
	upload.ProcessedAt = &now
	if err := s.uploadRepo.Finish(ctx, upload); err != nil {
		return nil, fmt.Errorf("mark upload failed: %w", err)
	}
	s.notify(ctx, upload)
	return upload, nil
}

func (s *IngestService) notify(ctx context.Context, upload *model.Upload) {
	if s.notifier == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, upload.UserID)
	if err != nil {
		s.logger.WithError(err).Warn("cannot notify, user lookup failed")
		return
	}
	if err := s.notifier.SendStatementProcessed(user.Email, upload); err != nil {
		s.logger.WithError(err).Warn("statement notification not sent")
	}
}

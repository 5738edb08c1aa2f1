package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/storage"
)

// Dispatcher hands a stored upload over for ingestion.
type Dispatcher interface {
	Dispatch(ctx context.Context, upload *model.Upload) (*model.Upload, error)
}

// InlineDispatcher ingests within the request.
type InlineDispatcher struct {
	ingest *IngestService
}

func NewInlineDispatcher(ingest *IngestService) *InlineDispatcher {
	return &InlineDispatcher{ingest: ingest}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, upload *model.Upload) (*model.Upload, error) {
	return d.ingest.Process(ctx, upload.ID)
}

// Publisher is implemented by queue.Client.
type Publisher interface {
	PublishStatementUploaded(ctx context.Context, uploadID, userID uuid.UUID) error
}

// QueueDispatcher leaves ingestion to the worker.
type QueueDispatcher struct {
	publisher Publisher
}

func NewQueueDispatcher(publisher Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, upload *model.Upload) (*model.Upload, error) {
	if err := d.publisher.PublishStatementUploaded(ctx, upload.ID, upload.UserID); err != nil {
		return nil, fmt.Errorf("queue upload: %w", err)
	}
	return upload, nil
}

// UploadInput carries a statement file from the HTTP layer. Content is nil
// when the request had no file.
type UploadInput struct {
	UserID    uuid.UUID
	AccountID string
	FileName  string
	Content   io.Reader
}

type UploadService struct {
	userRepo    UserStore
	accountRepo AccountStore
	uploadRepo  UploadStore
	blobs       storage.BlobStore
	dispatcher  Dispatcher
	maxBytes    int64
	logger      *logrus.Logger
}

func NewUploadService(
	userRepo UserStore,
	accountRepo AccountStore,
	uploadRepo UploadStore,
	blobs storage.BlobStore,
	dispatcher Dispatcher,
	maxBytes int64,
	logger *logrus.Logger,
) *UploadService {
	return &UploadService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		uploadRepo:  uploadRepo,
		blobs:       blobs,
		dispatcher:  dispatcher,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

// BlobKey names the stored statement: <user>/<account>_<unix ms>_<file>.
func BlobKey(userID, accountID uuid.UUID, at time.Time, fileName string) string {
	return fmt.Sprintf("%s/%s_%d_%s", userID, accountID, at.UnixMilli(), fileName)
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// Upload validates and stores a statement, links it to the account and
// dispatches it for ingestion.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*model.UploadResult, error) {
	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	if in.Content == nil {
		return nil, &ValidationError{Err: errors.New("No file uploaded")}
	}
	if strings.TrimSpace(in.AccountID) == "" {
		return nil, &ValidationError{Err: errors.New("Account ID is required")}
	}
	accountID, err := uuid.Parse(strings.TrimSpace(in.AccountID))
	if err != nil {
		return nil, model.ErrAccountNotFound
	}
	account, err := s.accountRepo.GetForUser(ctx, accountID, in.UserID)
	if err != nil {
		return nil, err
	}

	fileName := sanitizeFileName(in.FileName)
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, model.ErrInvalidFileType
	}

	now := time.Now()
	key := BlobKey(in.UserID, account.ID, now, fileName)

	size, err := s.blobs.Put(ctx, key, io.LimitReader(in.Content, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("store statement: %w", err)
	}
	if size > s.maxBytes {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("failed to remove oversized upload")
		}
		return nil, model.ErrFileTooLarge
	}

	if err := s.accountRepo.MarkUploaded(ctx, account.ID, key, now); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	upload := &model.Upload{
		ID:        uuid.New(),
		UserID:    in.UserID,
		AccountID: account.ID,
		FileName:  fileName,
		BlobKey:   key,
		Size:      size,
		Status:    model.UploadStatusPending,
		CreatedAt: now,
	}
	if err := s.uploadRepo.Create(ctx, upload); err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    in.UserID,
		"account_id": account.ID,
		"upload_id":  upload.ID,
		"size":       size,
	}).Info("statement uploaded")

	dispatched, err := s.dispatcher.Dispatch(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("dispatch ingestion: %w", err)
	}

	return &model.UploadResult{
		Success:    true,
		Message:    "File uploaded successfully",
		FileName:   fileName,
		Size:       size,
		UploadedAt: now,
		UploadID:   upload.ID,
		Status:     dispatched.Status,
		Imported:   dispatched.Imported,
	}, nil
}

// Get returns one of the user's uploads, typically to poll a queued ingestion.
func (s *UploadService) Get(ctx context.Context, userID, uploadID uuid.UUID) (*model.Upload, error) {
	upload, err := s.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if upload.UserID != userID {
		return nil, model.ErrUploadNotFound
	}
	return upload, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type UploadRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewUploadRepository(db *sql.DB, logger *logrus.Logger) *UploadRepository {
	return &UploadRepository{db: db, logger: logger}
}

func (r *UploadRepository) Create(ctx context.Context, u *model.Upload) error {
	query := `
		INSERT INTO uploads (id, user_id, account_id, file_name, blob_key, size, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.UserID, u.AccountID, u.FileName, u.BlobKey, u.Size, u.Status, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	query := `
		SELECT id, user_id, account_id, file_name, blob_key, size, status, imported, skipped, error, created_at, processed_at
		FROM uploads
		WHERE id = $1
	`

	var u model.Upload
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.UserID,
		&u.AccountID,
		&u.FileName,
		&u.BlobKey,
		&u.Size,
		&u.Status,
		&u.Imported,
		&u.Skipped,
		&u.Error,
		&u.CreatedAt,
		&u.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return &u, nil
}

// Finish records the outcome of ingesting an upload.
func (r *UploadRepository) Finish(ctx context.Context, u *model.Upload) error {
	query := `
		UPDATE uploads
		SET status = $1, imported = $2, skipped = $3, error = $4, processed_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query, u.Status, u.Imported, u.Skipped, u.Error, u.ProcessedAt, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return model.ErrUploadNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"upload_id": u.ID,
		"status":    u.Status,
		"imported":  u.Imported,
	}).Info("upload finished")
	return nil
}

// Complete stores an upload's transactions and marks it processed in one
// database transaction. The upload row is locked first; if it is no longer
// pending nothing is written and ErrUploadHandled is returned.
func (r *UploadRepository) Complete(ctx context.Context, u *model.Upload, transactions []model.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status model.UploadStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM uploads WHERE id = $1 FOR UPDATE`, u.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrUploadNotFound
		}
		return fmt.Errorf("failed to lock upload: %w", err)
	}
	if status != model.UploadStatusPending {
		return model.ErrUploadHandled
	}

	if err := insertTransactions(ctx, tx, transactions); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE uploads
		SET status = $1, imported = $2, skipped = $3, error = $4, processed_at = $5
		WHERE id = $6
	`, u.Status, u.Imported, u.Skipped, u.Error, u.ProcessedAt, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upload: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"upload_id": u.ID,
		"imported":  len(transactions),
	}).Info("upload completed")
	return nil
}

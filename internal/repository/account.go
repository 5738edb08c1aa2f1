package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type AccountRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewAccountRepository(db *sql.DB, logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

const accountColumns = `id, user_id, source_name, connected, last_uploaded, file_path, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, source_name, connected, last_uploaded, file_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.UserID,
		account.SourceName,
		account.Connected,
		account.LastUploaded,
		account.FilePath,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetForUser loads an account only if it belongs to userID.
func (r *AccountRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2`

	var account model.Account
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&account.ID,
		&account.UserID,
		&account.SourceName,
		&account.Connected,
		&account.LastUploaded,
		&account.FilePath,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *AccountRepository) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var account model.Account
		if err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.SourceName,
			&account.Connected,
			&account.LastUploaded,
			&account.FilePath,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) CountConnected(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = $1 AND connected = TRUE`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count connected accounts: %w", err)
	}
	return n, nil
}

// MarkUploaded flags the account as connected and records the latest statement.
func (r *AccountRepository) MarkUploaded(ctx context.Context, id uuid.UUID, blobKey string, at time.Time) error {
	query := `
		UPDATE accounts
		SET connected = TRUE,
		    last_uploaded = $1,
		    file_path = $2,
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, at, blobKey, id)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrAccountNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"account_id": id,
		"blob_key":   blobKey,
	}).Debug("account marked as uploaded")
	return nil
}

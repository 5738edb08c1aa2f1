package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type TransactionRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewTransactionRepository(db *sql.DB, logger *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

const transactionColumns = `id, user_id, account_id, date, description, amount, type, category, reference, created_at`

// CreateBatch inserts all transactions in a single database transaction.
func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []model.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransactions(ctx, tx, transactions); err != nil {
		r.logger.WithError(err).Error("failed to insert transactions")
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}

	r.logger.WithField("count", len(transactions)).Info("transactions stored")
	return nil
}

func insertTransactions(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range transactions {
		t := &transactions[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID,
			t.UserID,
			t.AccountID,
			t.Date,
			t.Description,
			t.Amount,
			t.Type,
			t.Category,
			t.Reference,
			t.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", i, err)
		}
	}
	return nil
}

// Find returns the filtered transactions, newest first. Limit 0 means no limit.
func (r *TransactionRepository) Find(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	where, args := buildTransactionWhere(filter)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY date DESC, created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"error":   err.Error(),
			"user_id": filter.UserID,
		}).Error("transaction query failed")
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.AccountID,
			&t.Date,
			&t.Description,
			&t.Amount,
			&t.Type,
			&t.Category,
			&t.Reference,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	r.logger.WithField("count", len(transactions)).Debug("transactions loaded")
	return transactions, nil
}

// Count returns the number of transactions matching the filter, ignoring paging.
func (r *TransactionRepository) Count(ctx context.Context, filter model.TransactionFilter) (int64, error) {
	where, args := buildTransactionWhere(filter)
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// CountAll returns the user's all-time transaction count.
func (r *TransactionRepository) CountAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.Count(ctx, model.TransactionFilter{UserID: userID})
}

// SumAmount sums amount over the filter regardless of transaction type.
func (r *TransactionRepository) SumAmount(ctx context.Context, filter model.TransactionFilter) (decimal.Decimal, error) {
	where, args := buildTransactionWhere(filter)
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions`+where, args...).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

// buildTransactionWhere renders the WHERE clause and positional args for a filter.
func buildTransactionWhere(f model.TransactionFilter) (string, []interface{}) {
	clauses := []string{"user_id = $1"}
	args := []interface{}{f.UserID}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	// PostgreSQL keeps microseconds and rounds finer input, so bounds are
	// truncated before they are sent.
	if f.StartDate != nil {
		add("date >= $%d", f.StartDate.Truncate(time.Microsecond))
	}
	if f.EndDate != nil {
		add("date <= $%d", f.EndDate.Truncate(time.Microsecond))
	}
	if f.EndBefore != nil {
		add("date < $%d", f.EndBefore.Truncate(time.Microsecond))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type SnapshotRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewSnapshotRepository(db *sql.DB, logger *logrus.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: db, logger: logger}
}

// Upsert stores the snapshot, replacing any earlier one for the same month.
func (r *SnapshotRepository) Upsert(ctx context.Context, s *model.ScoreSnapshot) error {
	query := `
		INSERT INTO score_snapshots (user_id, month, credit_score, monthly_income, monthly_expenses, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, month) DO UPDATE
		SET credit_score = EXCLUDED.credit_score,
		    monthly_income = EXCLUDED.monthly_income,
		    monthly_expenses = EXCLUDED.monthly_expenses,
		    taken_at = EXCLUDED.taken_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.UserID, s.Month, s.CreditScore, s.MonthlyIncome, s.MonthlyExpenses, s.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert score snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.ScoreSnapshot, error) {
	query := `
		SELECT user_id, month, credit_score, monthly_income, monthly_expenses, taken_at
		FROM score_snapshots
		WHERE user_id = $1
		ORDER BY month DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []model.ScoreSnapshot{}
	for rows.Next() {
		var s model.ScoreSnapshot
		if err := rows.Scan(&s.UserID, &s.Month, &s.CreditScore, &s.MonthlyIncome, &s.MonthlyExpenses, &s.TakenAt); err != nil {
			return nil, fmt.Errorf("failed to scan score snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate score snapshots: %w", err)
	}
	return snapshots, nil
}

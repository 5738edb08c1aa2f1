package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

// The services depend on these narrow views of the repositories so that
// handlers and jobs can be exercised without a database.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*model.User, error)
	ListWithTransactions(ctx context.Context) ([]uuid.UUID, error)
}

type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Account, error)
	GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error)
	CountConnected(ctx context.Context, userID uuid.UUID) (int, error)
	MarkUploaded(ctx context.Context, id uuid.UUID, blobKey string, at time.Time) error
}

type TransactionStore interface {
	CreateBatch(ctx context.Context, transactions []model.Transaction) error
	Find(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error)
	Count(ctx context.Context, filter model.TransactionFilter) (int64, error)
	CountAll(ctx context.Context, userID uuid.UUID) (int64, error)
	SumAmount(ctx context.Context, filter model.TransactionFilter) (decimal.Decimal, error)
}

type UploadStore interface {
	Create(ctx context.Context, u *model.Upload) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Upload, error)
	Finish(ctx context.Context, u *model.Upload) error
	Complete(ctx context.Context, u *model.Upload, transactions []model.Transaction) error
}

type SnapshotStore interface {
	Upsert(ctx context.Context, s *model.ScoreSnapshot) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.ScoreSnapshot, error)
}

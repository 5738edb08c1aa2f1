package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

func TestUserCreate(t *testing.T) {
	now := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	user := &model.User{ID: uuid.New(), Email: "a@example.com", Name: "A", Password: "hash", CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"ok", nil, nil},
		{"duplicate email", &pq.Error{Code: "23505", Constraint: "users_email_key"}, model.ErrEmailTaken},
		{"other unique violation", &pq.Error{Code: "23505", Constraint: "users_pkey"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			exec := mock.ExpectExec(`INSERT INTO users`).
				WithArgs(user.ID, user.Email, user.Name, user.Password, now, now)
			if tt.dbErr != nil {
				exec.WillReturnError(tt.dbErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := NewUserRepository(db, quietLogger()).Create(context.Background(), user)
			switch {
			case tt.dbErr == nil && err != nil:
				t.Fatalf("Create: %v", err)
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			case tt.dbErr != nil && tt.wantErr == nil && (err == nil || errors.Is(err, model.ErrEmailTaken)):
				t.Fatalf("err = %v, want a wrapped database error", err)
			}
		})
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery(`SELECT id, email, name, password, created_at, updated_at\s+FROM users\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password", "created_at", "updated_at"}))

	if _, err := NewUserRepository(db, quietLogger()).GetByID(context.Background(), id); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

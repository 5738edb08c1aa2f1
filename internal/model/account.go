package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is a statement source (bank account, card, wallet) owned by a user.
type Account struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"-" db:"user_id"`
	SourceName   string     `json:"sourceName" db:"source_name"`
	Connected    bool       `json:"connected" db:"connected"`
	LastUploaded *time.Time `json:"lastUploaded" db:"last_uploaded"`
	FilePath     *string    `json:"-" db:"file_path"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"-" db:"updated_at"`
}

type CreateAccountRequest struct {
	SourceName string `json:"sourceName"`
}

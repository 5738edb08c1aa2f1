package model

import (
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusProcessed UploadStatus = "processed"
	UploadStatusFailed    UploadStatus = "failed"
)

// Upload tracks one statement file from receipt to ingestion.
type Upload struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	UserID      uuid.UUID    `json:"-" db:"user_id"`
	AccountID   uuid.UUID    `json:"accountId" db:"account_id"`
	FileName    string       `json:"fileName" db:"file_name"`
	BlobKey     string       `json:"-" db:"blob_key"`
	Size        int64        `json:"size" db:"size"`
	Status      UploadStatus `json:"status" db:"status"`
	Imported    int          `json:"imported" db:"imported"`
	Skipped     int          `json:"skipped" db:"skipped"`
	Error       *string      `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	ProcessedAt *time.Time   `json:"processedAt,omitempty" db:"processed_at"`
}

type UploadResult struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	FileName   string       `json:"fileName"`
	Size       int64        `json:"size"`
	UploadedAt time.Time    `json:"uploadedAt"`
	UploadID   uuid.UUID    `json:"uploadId"`
	Status     UploadStatus `json:"status"`
	Imported   int          `json:"imported"`
}

package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatementUploadedMessage points the worker at a stored upload. The worker
// loads everything else from the database.
type StatementUploadedMessage struct {
	UploadID  uuid.UUID `json:"uploadId"`
	UserID    uuid.UUID `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStatementUploadedMessage(uploadID, userID uuid.UUID) *StatementUploadedMessage {
	return &StatementUploadedMessage{
		UploadID:  uploadID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *StatementUploadedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatementUploadedMessageFromJSON decodes a message and rejects one without an upload id.
func StatementUploadedMessageFromJSON(data []byte) (*StatementUploadedMessage, error) {
	var msg StatementUploadedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UploadID == uuid.Nil {
		return nil, fmt.Errorf("message has no upload id")
	}
	return &msg, nil
}

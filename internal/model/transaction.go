package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"  // money in
	TransactionTypeExpense TransactionType = "expense" // money out
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// Transaction is a single ledger entry. Amount is always non-negative; the
// direction is carried by Type.
type Transaction struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	AccountID   *uuid.UUID      `db:"account_id"`
	Date        time.Time       `db:"date"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
	Type        TransactionType `db:"type"`
	Category    string          `db:"category"`
	Reference   *string         `db:"reference"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (t *Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount must be non-negative, got %s", t.Amount)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}
	return nil
}

type transactionJSON struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// MarshalJSON emits the dashboard shape with amount as a plain number.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID.String(),
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount.InexactFloat64(),
		Type:        t.Type,
		Category:    t.Category,
		CreatedAt:   t.CreatedAt,
	})
}

// TransactionFilter selects a user's transactions. Zero values mean no restriction.
// EndDate is inclusive; EndBefore is exclusive and is what whole-day and
// whole-month ranges use.
type TransactionFilter struct {
	UserID    uuid.UUID
	Type      TransactionType
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	EndBefore *time.Time
	Limit     int
	Offset    int
}

type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
	TotalAmount  float64       `json:"totalAmount"`
	HasMore      bool          `json:"hasMore"`
}

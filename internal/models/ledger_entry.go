package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one side of a double-entry pair created when a payment
// posts. Append-only.
type LedgerEntry struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID uuid.UUID       `gorm:"type:uuid;index" json:"paymentId"`
	AccountID string          `gorm:"index" json:"accountId"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

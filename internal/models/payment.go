package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PaymentStatusPending     = "PENDING"
	PaymentStatusPosted      = "POSTED"
	PaymentStatusUnallocated = "UNALLOCATED"
	PaymentStatusFailed      = "FAILED"
)

const (
	ChannelSMS       = "SMS"
	ChannelStatement = "STATEMENT"
	ChannelManual    = "MANUAL"
)

// Payment is the ledger-facing record of one mobile-money transaction.
// Rows are never deleted, only reclassified.
type Payment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SaccoID    uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:idx_payments_sacco_txn" json:"saccoId"`
	IkiminaID  *uuid.UUID `gorm:"type:uuid;index" json:"ikiminaId"`
	MemberID   *uuid.UUID `gorm:"type:uuid" json:"memberId"`
	Channel    string     `gorm:"index" json:"channel"`
	Msisdn     string     `gorm:"index" json:"msisdn"`
	Amount     float64    `json:"amount"`
	Currency   string     `json:"currency"`
	TxnID      string     `gorm:"uniqueIndex:idx_payments_sacco_txn" json:"txnId"`
	Reference  *string    `json:"reference"`
	OccurredAt time.Time  `json:"occurredAt"`
	Status     string     `gorm:"index" json:"status"`
	SourceID   *uuid.UUID `gorm:"type:uuid" json:"sourceId"`
	Confidence float64    `json:"confidence"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NormalizeTxnID is the dedup normalization: trim plus case-fold. The
// (sacco_id, txn_id) unique index assumes every writer applies it first.
func NormalizeTxnID(txnID string) string {
	return strings.ToUpper(strings.TrimSpace(txnID))
}

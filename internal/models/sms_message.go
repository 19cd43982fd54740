package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SmsStatusNew           = "NEW"
	SmsStatusParsed        = "PARSED"
	SmsStatusApplied       = "APPLIED"
	SmsStatusFailed        = "FAILED"
	SmsStatusPendingReview = "PENDING_REVIEW"
)

// SmsMessage is one inbound notification. RawText is kept verbatim so a
// failed parse can be read and reprocessed by staff.
type SmsMessage struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SaccoID      *uuid.UUID     `gorm:"type:uuid;index" json:"saccoId"`
	RawText      string         `json:"rawText"`
	ReceivedAt   time.Time      `gorm:"index" json:"receivedAt"`
	VendorMeta   datatypes.JSON `json:"vendorMeta"`
	Status       string         `gorm:"index" json:"status"`
	Error        string         `json:"error"`
	ParseDetails datatypes.JSON `json:"parseDetails"`
	Confidence   float64        `json:"confidence"`
	CreatedAt    time.Time      `json:"createdAt"`
}

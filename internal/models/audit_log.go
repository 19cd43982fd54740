package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is append-only. Entries are never updated or deleted.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SaccoID   *uuid.UUID     `gorm:"type:uuid;index" json:"saccoId"`
	Action    string         `gorm:"index" json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `gorm:"index" json:"entityId"`
	Diff      datatypes.JSON `json:"diff"`
	Actor     string         `json:"actor"`
	CreatedAt time.Time      `json:"createdAt"`
}

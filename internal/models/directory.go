package models

import (
	"time"

	"github.com/google/uuid"
)

const DirectoryStatusActive = "ACTIVE"

// Sacco is the top-level multi-tenant boundary.
type Sacco struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	District  string    `gorm:"index" json:"district"`
	Status    string    `gorm:"index" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ikimina is a savings group, the unit payments are assigned to.
type Ikimina struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SaccoID   uuid.UUID `gorm:"type:uuid;index" json:"saccoId"`
	Name      string    `json:"name"`
	Code      string    `gorm:"index" json:"code"`
	Status    string    `gorm:"index" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Member struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IkiminaID  uuid.UUID `gorm:"type:uuid;index" json:"ikiminaId"`
	SaccoID    uuid.UUID `gorm:"type:uuid;index" json:"saccoId"`
	FullName   string    `json:"fullName"`
	MemberCode string    `gorm:"index" json:"memberCode"`
	Msisdn     string    `gorm:"index" json:"msisdn"`
	Status     string    `gorm:"index" json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

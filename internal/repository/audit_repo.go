package repository

import (
	"context"

	"ibimina-reconciliation-backend/internal/models"

	"gorm.io/gorm"
)

// AuditStore only appends. There is deliberately no update or delete.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

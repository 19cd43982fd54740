package repository

import (
	"context"

	"ibimina-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerStore interface {
	ExistsForPayment(ctx context.Context, paymentID uuid.UUID) (bool, error)
	Insert(ctx context.Context, entries ...models.LedgerEntry) error
}

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) ExistsForPayment(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("payment_id = ?", paymentID).
		Count(&count).Error
	return count > 0, err
}

func (r *LedgerRepository) Insert(ctx context.Context, entries ...models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(&entries).Error
}

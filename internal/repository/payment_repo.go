package repository

import (
	"context"
	"errors"

	"ibimina-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentStore is the typed access layer for payment rows. Idempotency under
// concurrent delivery rides the (sacco_id, txn_id) unique index, not
// application locking: Insert reports false instead of erroring when the row
// already exists.
type PaymentStore interface {
	Insert(ctx context.Context, p *models.Payment) (bool, error)
	FindByTxn(ctx context.Context, saccoID uuid.UUID, txnID string) (*models.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByStatus(ctx context.Context, saccoID uuid.UUID, status string) ([]models.Payment, error)
	// UpdateAssignment reassigns the matching rows. The sacco filter is
	// applied inside the query so IDs from another tenant are excluded from
	// the returned count rather than updated.
	UpdateAssignment(ctx context.Context, saccoID *uuid.UUID, ids []uuid.UUID, ikiminaID uuid.UUID, memberID *uuid.UUID) (int64, error)
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *models.Payment) (bool, error) {
	p.TxnID = models.NormalizeTxnID(p.TxnID)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(p)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PaymentRepository) FindByTxn(ctx context.Context, saccoID uuid.UUID, txnID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("sacco_id = ? AND txn_id = ?", saccoID, models.NormalizeTxnID(txnID)).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByStatus(ctx context.Context, saccoID uuid.UUID, status string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("sacco_id = ? AND status = ?", saccoID, status).
		Order("occurred_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) UpdateAssignment(ctx context.Context, saccoID *uuid.UUID, ids []uuid.UUID, ikiminaID uuid.UUID, memberID *uuid.UUID) (int64, error) {
	updates := map[string]interface{}{
		"ikimina_id": ikiminaID,
		"status":     models.PaymentStatusPosted,
	}
	if memberID != nil {
		updates["member_id"] = *memberID
	}

	query := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id IN ?", ids)
	if saccoID != nil {
		query = query.Where("sacco_id = ?", *saccoID)
	}

	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

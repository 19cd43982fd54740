package repository

import (
	"context"
	"time"

	"ibimina-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatusSummary feeds the operational status endpoint.
type StatusSummary struct {
	LastMessageAt     *time.Time `json:"lastMessageAt"`
	LastMessageStatus *string    `json:"lastMessageStatus"`
	LastFailureAt     *time.Time `json:"lastFailureAt"`
	LastFailureError  *string    `json:"lastFailureError"`
	TotalMessages     int64      `json:"totalMessages"`
	ProcessedToday    int64      `json:"processedToday"`
	FailedToday       int64      `json:"failedToday"`
	PendingMessages   int64      `json:"pendingMessages"`
}

type SmsStore interface {
	Insert(ctx context.Context, msg *models.SmsMessage) error
	MarkParsed(ctx context.Context, id uuid.UUID, details datatypes.JSON, confidence float64) error
	MarkApplied(ctx context.Context, id uuid.UUID, note string) error
	MarkFailed(ctx context.Context, id uuid.UUID, status, reason string) error
	Summary(ctx context.Context, saccoID *uuid.UUID) (*StatusSummary, error)
}

type SmsRepository struct {
	db *gorm.DB
}

func NewSmsRepository(db *gorm.DB) *SmsRepository {
	return &SmsRepository{db: db}
}

func (r *SmsRepository) Insert(ctx context.Context, msg *models.SmsMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *SmsRepository) MarkParsed(ctx context.Context, id uuid.UUID, details datatypes.JSON, confidence float64) error {
	return r.db.WithContext(ctx).
		Model(&models.SmsMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.SmsStatusParsed,
			"parse_details": details,
			"confidence":    confidence,
		}).Error
}

func (r *SmsRepository) MarkApplied(ctx context.Context, id uuid.UUID, note string) error {
	return r.db.WithContext(ctx).
		Model(&models.SmsMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": models.SmsStatusApplied,
			"error":  note,
		}).Error
}

func (r *SmsRepository) MarkFailed(ctx context.Context, id uuid.UUID, status, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.SmsMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": status,
			"error":  reason,
		}).Error
}

func (r *SmsRepository) Summary(ctx context.Context, saccoID *uuid.UUID) (*StatusSummary, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.SmsMessage{})
		if saccoID != nil {
			q = q.Where("sacco_id = ?", *saccoID)
		}
		return q
	}

	summary := &StatusSummary{}

	var latest []models.SmsMessage
	if err := scoped().Order("received_at DESC").Limit(1).Find(&latest).Error; err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		summary.LastMessageAt = &latest[0].ReceivedAt
		summary.LastMessageStatus = &latest[0].Status
	}

	var lastFailed []models.SmsMessage
	if err := scoped().
		Where("status = ?", models.SmsStatusFailed).
		Order("received_at DESC").Limit(1).
		Find(&lastFailed).Error; err != nil {
		return nil, err
	}
	if len(lastFailed) > 0 {
		summary.LastFailureAt = &lastFailed[0].ReceivedAt
		summary.LastFailureError = &lastFailed[0].Error
	}

	if err := scoped().Count(&summary.TotalMessages).Error; err != nil {
		return nil, err
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	if err := scoped().
		Where("received_at >= ?", startOfDay).
		Count(&summary.ProcessedToday).Error; err != nil {
		return nil, err
	}
	if err := scoped().
		Where("status = ? AND received_at >= ?", models.SmsStatusFailed, startOfDay).
		Count(&summary.FailedToday).Error; err != nil {
		return nil, err
	}
	if err := scoped().
		Where("status IN ?", []string{models.SmsStatusNew, models.SmsStatusPendingReview}).
		Count(&summary.PendingMessages).Error; err != nil {
		return nil, err
	}

	return summary, nil
}

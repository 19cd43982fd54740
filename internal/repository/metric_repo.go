package repository

import (
	"context"
	"errors"
	"time"

	"ibimina-reconciliation-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MetricStore interface {
	Increment(ctx context.Context, event string) error
	Get(ctx context.Context, event string) (*models.SystemMetric, error)
}

type MetricRepository struct {
	db *gorm.DB
}

func NewMetricRepository(db *gorm.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

func (r *MetricRepository) Increment(ctx context.Context, event string) error {
	now := time.Now().UTC()
	metric := models.SystemMetric{Event: event, Total: 1, LastOccurred: now}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total":         gorm.Expr("total + 1"),
				"last_occurred": now,
			}),
		}).
		Create(&metric).Error
}

func (r *MetricRepository) Get(ctx context.Context, event string) (*models.SystemMetric, error) {
	var metric models.SystemMetric
	err := r.db.WithContext(ctx).First(&metric, "event = ?", event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &metric, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"ibimina-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage(saccoID *uuid.UUID, status string, receivedAt time.Time) *models.SmsMessage {
	return &models.SmsMessage{
		ID:         uuid.New(),
		SaccoID:    saccoID,
		RawText:    "You have received RWF 1,000",
		ReceivedAt: receivedAt,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSmsStatusTransitions(t *testing.T) {
	repo := NewSmsRepository(newTestDB(t))
	ctx := context.Background()

	msg := newMessage(nil, models.SmsStatusNew, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, msg))

	require.NoError(t, repo.MarkParsed(ctx, msg.ID, []byte(`{"amount":1000}`), 1))
	require.NoError(t, repo.MarkApplied(ctx, msg.ID, ""))

	var reloaded models.SmsMessage
	require.NoError(t, repo.db.First(&reloaded, "id = ?", msg.ID).Error)
	assert.Equal(t, models.SmsStatusApplied, reloaded.Status)
	assert.Equal(t, float64(1), reloaded.Confidence)
	assert.NotEmpty(t, reloaded.ParseDetails)
}

func TestSmsSummary(t *testing.T) {
	repo := NewSmsRepository(newTestDB(t))
	ctx := context.Background()
	saccoID := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, repo.Insert(ctx, newMessage(&saccoID, models.SmsStatusApplied, now.Add(-2*time.Minute))))
	require.NoError(t, repo.Insert(ctx, newMessage(&saccoID, models.SmsStatusPendingReview, now.Add(-time.Minute))))

	failed := newMessage(&saccoID, models.SmsStatusNew, now)
	require.NoError(t, repo.Insert(ctx, failed))
	require.NoError(t, repo.MarkFailed(ctx, failed.ID, models.SmsStatusFailed, "no provider template matched"))

	otherSacco := uuid.New()
	require.NoError(t, repo.Insert(ctx, newMessage(&otherSacco, models.SmsStatusApplied, now)))

	summary, err := repo.Summary(ctx, &saccoID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.TotalMessages)
	assert.Equal(t, int64(1), summary.PendingMessages)
	require.NotNil(t, summary.LastMessageAt)
	require.NotNil(t, summary.LastMessageStatus)
	assert.Equal(t, models.SmsStatusFailed, *summary.LastMessageStatus)
	require.NotNil(t, summary.LastFailureError)
	assert.Equal(t, "no provider template matched", *summary.LastFailureError)

	unscoped, err := repo.Summary(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), unscoped.TotalMessages)
}

func TestMetricIncrementUpserts(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.SystemMetric{}))
	repo := NewMetricRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Increment(ctx, "sms_ingested"))
	require.NoError(t, repo.Increment(ctx, "sms_ingested"))
	require.NoError(t, repo.Increment(ctx, "sms_duplicates"))

	metric, err := repo.Get(ctx, "sms_ingested")
	require.NoError(t, err)
	require.NotNil(t, metric)
	assert.Equal(t, int64(2), metric.Total)

	missing, err := repo.Get(ctx, "statement_imported")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

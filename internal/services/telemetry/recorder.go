package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/repository"

	"github.com/google/uuid"
)

// Counter event names for the operational dashboard.
const (
	EventSmsIngested       = "sms_ingested"
	EventSmsDuplicates     = "sms_duplicates"
	EventStatementImported = "statement_imported"
	EventPaymentAction     = "payment_action"
	EventReconEscalations  = "recon_escalations"
)

// AuditEntry captures one mutation for the compliance trail.
type AuditEntry struct {
	SaccoID  *uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Diff     map[string]interface{}
	Actor    string
}

// Recorder writes the append-only audit trail and bumps rolling counters.
// Counters are advisory: a failed increment is logged and swallowed so the
// ledger mutation it rides along with is never rolled back over telemetry.
type Recorder struct {
	audits  repository.AuditStore
	metrics repository.MetricStore
	log     *slog.Logger
}

func NewRecorder(audits repository.AuditStore, metrics repository.MetricStore, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{audits: audits, metrics: metrics, log: log}
}

func (r *Recorder) Audit(ctx context.Context, entry AuditEntry) error {
	diff, err := json.Marshal(entry.Diff)
	if err != nil {
		return err
	}

	return r.audits.Append(ctx, &models.AuditLog{
		ID:        uuid.New(),
		SaccoID:   entry.SaccoID,
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		Diff:      diff,
		Actor:     entry.Actor,
		CreatedAt: time.Now().UTC(),
	})
}

func (r *Recorder) Record(ctx context.Context, event string) {
	if err := r.metrics.Increment(ctx, event); err != nil {
		r.log.Warn("metric increment failed", "event", event, "error", err)
	}
}

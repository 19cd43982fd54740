package ingestion

import (
	"context"
	"time"

	"ibimina-reconciliation-backend/internal/repository"
	"ibimina-reconciliation-backend/internal/services/telemetry"

	"github.com/google/uuid"
)

type StatusReport struct {
	SaccoID     *uuid.UUID `json:"saccoId"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Summary     Summary    `json:"summary"`
}

type Summary struct {
	repository.StatusSummary
	IngestEventsTotal  int64      `json:"ingestEventsTotal"`
	IngestEventsLastAt *time.Time `json:"ingestEventsLastAt"`
}

// Status reports pipeline health for the monitoring dashboard. The counters
// are scoped to one tenant when saccoID is set; the ingest-event totals are
// service-wide either way.
func (s *Service) Status(ctx context.Context, saccoID *uuid.UUID) (*StatusReport, error) {
	summary, err := s.sms.Summary(ctx, saccoID)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		SaccoID:     saccoID,
		GeneratedAt: time.Now().UTC(),
		Summary:     Summary{StatusSummary: *summary},
	}

	metric, err := s.metrics.Get(ctx, telemetry.EventSmsIngested)
	if err != nil {
		return nil, err
	}
	if metric != nil {
		report.Summary.IngestEventsTotal = metric.Total
		last := metric.LastOccurred
		report.Summary.IngestEventsLastAt = &last
	}

	return report, nil
}

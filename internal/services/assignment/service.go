package assignment

import (
	"context"
	"errors"
	"log/slog"

	"ibimina-reconciliation-backend/internal/auth"
	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/repository"
	"ibimina-reconciliation-backend/internal/services/ledger"
	"ibimina-reconciliation-backend/internal/services/telemetry"

	"github.com/google/uuid"
)

var (
	ErrForbidden     = errors.New("assignment: actor may not reconcile payments for this sacco")
	ErrNoScope       = errors.New("assignment: no sacco scope resolved for actor")
	ErrNoIDs         = errors.New("assignment: at least one payment id is required")
	ErrGroupRequired = errors.New("assignment: ikiminaId is required")
	ErrGroupNotFound = errors.New("assignment: ikimina not found")
	ErrGroupScope    = errors.New("assignment: ikimina belongs to another sacco")
)

type Request struct {
	IDs       []uuid.UUID
	IkiminaID uuid.UUID
	MemberID  *uuid.UUID
	SaccoID   *uuid.UUID
}

type Result struct {
	Updated int64 `json:"updated"`
}

// Service applies staff reconciliation decisions to unallocated payments.
// Concurrent assignments of the same payment are last-write-wins, matching
// how the review queue is worked: one row, one decision, latest wins.
type Service struct {
	payments  repository.PaymentStore
	directory repository.DirectoryStore
	poster    *ledger.Poster
	recorder  *telemetry.Recorder
	log       *slog.Logger
}

func NewService(
	payments repository.PaymentStore,
	directory repository.DirectoryStore,
	poster *ledger.Poster,
	recorder *telemetry.Recorder,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{payments: payments, directory: directory, poster: poster, recorder: recorder, log: log}
}

func (s *Service) Assign(ctx context.Context, actor auth.Actor, req Request) (*Result, error) {
	if len(req.IDs) == 0 {
		return nil, ErrNoIDs
	}
	if req.IkiminaID == uuid.Nil {
		return nil, ErrGroupRequired
	}

	group, err := s.directory.GroupByID(ctx, req.IkiminaID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	if !actor.CanReconcilePayments(group.SaccoID) {
		return nil, ErrForbidden
	}

	// System admins update across tenants unless they narrow the scope
	// themselves; everyone else is filtered to their own sacco, so foreign
	// ids silently fall out of the count.
	scope := actor.ResolveScope(req.SaccoID)
	if !actor.IsSystemAdmin() && scope == nil {
		return nil, ErrNoScope
	}
	if scope != nil && *scope != group.SaccoID {
		return nil, ErrGroupScope
	}

	updated, err := s.payments.UpdateAssignment(ctx, scope, req.IDs, req.IkiminaID, req.MemberID)
	if err != nil {
		return nil, err
	}

	// Hand-assigned payments post to the ledger the same way auto-matched
	// ones do. Posting is idempotent per payment, so rows that were POSTED
	// before the reassignment are skipped.
	for _, id := range req.IDs {
		payment, err := s.payments.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if payment == nil || payment.Status != models.PaymentStatusPosted || payment.IkiminaID == nil {
			continue
		}
		if scope != nil && payment.SaccoID != *scope {
			continue
		}
		if err := s.poster.Post(ctx, payment); err != nil {
			s.log.Warn("ledger post failed for assigned payment", "paymentId", id, "error", err)
		}
	}

	diff := map[string]interface{}{
		"ids":       req.IDs,
		"ikiminaId": req.IkiminaID.String(),
		"updated":   updated,
	}
	if req.MemberID != nil {
		diff["memberId"] = req.MemberID.String()
	}
	if err := s.recorder.Audit(ctx, telemetry.AuditEntry{
		SaccoID:  &group.SaccoID,
		Action:   "PAYMENT_ASSIGN",
		Entity:   "PAYMENTS",
		EntityID: req.IkiminaID.String(),
		Diff:     diff,
		Actor:    actor.ID,
	}); err != nil {
		s.log.Warn("audit write failed", "ikiminaId", req.IkiminaID, "error", err)
	}
	s.recorder.Record(ctx, telemetry.EventPaymentAction)

	return &Result{Updated: updated}, nil
}

package ingestion

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ibimina-reconciliation-backend/internal/events"
	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/repository"
	"ibimina-reconciliation-backend/internal/services/ledger"
	"ibimina-reconciliation-backend/internal/services/matching"
	"ibimina-reconciliation-backend/internal/services/smsparser"
	"ibimina-reconciliation-backend/internal/services/telemetry"

	"github.com/google/uuid"
)

// StatusDuplicate is reported when a message replays an already-stored
// transaction. Not an error: retries of the same payload are expected.
const StatusDuplicate = "DUPLICATE"

type Request struct {
	Text       string
	ReceivedAt time.Time
	SourceHint string
	VendorMeta map[string]interface{}
	SaccoID    *uuid.UUID
}

type Result struct {
	SmsID     uuid.UUID                    `json:"smsId"`
	PaymentID *uuid.UUID                   `json:"paymentId,omitempty"`
	Status    string                       `json:"status"`
	Parsed    *smsparser.ParsedTransaction `json:"parsed,omitempty"`
}

// Service is the per-message ingestion pipeline: store raw, parse, dedup,
// match, persist, post. One webhook call, one invocation; safe to run
// concurrently for the same or different tenants.
type Service struct {
	sms      repository.SmsStore
	payments repository.PaymentStore
	metrics  repository.MetricStore
	parser   *smsparser.Parser
	matcher  *matching.Matcher
	poster   *ledger.Poster
	recorder *telemetry.Recorder
	events   events.Publisher
	log      *slog.Logger
}

func NewService(
	sms repository.SmsStore,
	payments repository.PaymentStore,
	metrics repository.MetricStore,
	parser *smsparser.Parser,
	matcher *matching.Matcher,
	poster *ledger.Poster,
	recorder *telemetry.Recorder,
	publisher events.Publisher,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		sms:      sms,
		payments: payments,
		metrics:  metrics,
		parser:   parser,
		matcher:  matcher,
		poster:   poster,
		recorder: recorder,
		events:   publisher,
		log:      log,
	}
}

func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	msg := &models.SmsMessage{
		ID:         uuid.New(),
		SaccoID:    req.SaccoID,
		RawText:    req.Text,
		ReceivedAt: receivedAt,
		Status:     models.SmsStatusNew,
		CreatedAt:  time.Now().UTC(),
	}
	if req.VendorMeta != nil {
		meta, err := json.Marshal(req.VendorMeta)
		if err == nil {
			msg.VendorMeta = meta
		}
	}
	if err := s.sms.Insert(ctx, msg); err != nil {
		return nil, err
	}

	parsed, provider := s.parser.Parse(req.Text, req.SourceHint)

	// Parse failures never drop the message: raw text stays on the inbox
	// row so staff can read and reprocess it.
	if parsed == nil && provider == smsparser.ProviderUnknown {
		s.markFailed(ctx, msg.ID, models.SmsStatusFailed, "no provider template matched")
		s.recorder.Record(ctx, telemetry.EventReconEscalations)
		return &Result{SmsID: msg.ID, Status: models.SmsStatusFailed}, nil
	}
	if parsed == nil || !s.parser.Valid(parsed) {
		s.markFailed(ctx, msg.ID, models.SmsStatusPendingReview, "partial match failed validity check")
		s.recorder.Record(ctx, telemetry.EventReconEscalations)
		return &Result{SmsID: msg.ID, Status: models.SmsStatusPendingReview, Parsed: parsed}, nil
	}

	if details, err := json.Marshal(parsed); err == nil {
		if err := s.sms.MarkParsed(ctx, msg.ID, details, 1); err != nil {
			s.log.Warn("sms parse update failed", "smsId", msg.ID, "error", err)
		}
	}

	saccoHint := uuid.Nil
	if req.SaccoID != nil {
		saccoHint = *req.SaccoID
	}
	match, err := s.matcher.Match(ctx, matching.Input{
		SaccoID:   saccoHint,
		Reference: parsed.ReferenceToken,
		Msisdn:    parsed.Msisdn,
	})
	if err != nil {
		return nil, err
	}

	txnID := models.NormalizeTxnID(parsed.TransactionID)
	if existing, err := s.payments.FindByTxn(ctx, match.SaccoID, txnID); err != nil {
		return nil, err
	} else if existing != nil {
		return s.finishDuplicate(ctx, msg.ID, existing.ID)
	}

	reference := parsed.ReferenceToken
	payment := &models.Payment{
		ID:         uuid.New(),
		SaccoID:    match.SaccoID,
		IkiminaID:  match.IkiminaID,
		MemberID:   match.MemberID,
		Channel:    models.ChannelSMS,
		Msisdn:     parsed.Msisdn,
		Amount:     parsed.Amount,
		Currency:   parsed.Currency,
		TxnID:      txnID,
		Reference:  &reference,
		OccurredAt: receivedAt,
		Status:     match.Status,
		SourceID:   &msg.ID,
		Confidence: 1,
		CreatedAt:  time.Now().UTC(),
	}

	inserted, err := s.payments.Insert(ctx, payment)
	if err != nil {
		// Retryable for the upstream forwarder: ingestion is idempotent on
		// the txn id, resubmitting the same payload is always safe.
		s.log.Error("payment insert failed",
			"saccoId", match.SaccoID, "txnId", txnID, "error", err)
		return nil, err
	}
	if !inserted {
		// Lost a concurrent race on (sacco_id, txn_id); the winner stored
		// the row, this delivery reports the duplicate.
		existing, err := s.payments.FindByTxn(ctx, match.SaccoID, txnID)
		if err != nil {
			return nil, err
		}
		var existingID uuid.UUID
		if existing != nil {
			existingID = existing.ID
		}
		return s.finishDuplicate(ctx, msg.ID, existingID)
	}

	if payment.Status == models.PaymentStatusPosted {
		if err := s.poster.Post(ctx, payment); err != nil {
			return nil, err
		}
		if err := s.events.PublishPosted(ctx, events.PostedPayment{
			PaymentID: payment.ID,
			SaccoID:   payment.SaccoID,
			IkiminaID: payment.IkiminaID,
			MemberID:  payment.MemberID,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			TxnID:     payment.TxnID,
		}); err != nil {
			s.log.Warn("posted-payment event publish failed", "paymentId", payment.ID, "error", err)
		}
	}

	if err := s.recorder.Audit(ctx, telemetry.AuditEntry{
		SaccoID:  saccoPtr(payment.SaccoID),
		Action:   "SMS_INGESTED",
		Entity:   "SMS_INBOX",
		EntityID: msg.ID.String(),
		Diff: map[string]interface{}{
			"paymentId": payment.ID.String(),
			"provider":  parsed.Provider,
			"status":    payment.Status,
		},
		Actor: "sms-gateway",
	}); err != nil {
		s.log.Warn("audit write failed", "smsId", msg.ID, "error", err)
	}
	s.recorder.Record(ctx, telemetry.EventSmsIngested)

	if err := s.sms.MarkApplied(ctx, msg.ID, ""); err != nil {
		s.log.Warn("sms status update failed", "smsId", msg.ID, "error", err)
	}

	return &Result{
		SmsID:     msg.ID,
		PaymentID: &payment.ID,
		Status:    payment.Status,
		Parsed:    parsed,
	}, nil
}

func (s *Service) finishDuplicate(ctx context.Context, smsID, paymentID uuid.UUID) (*Result, error) {
	if err := s.sms.MarkApplied(ctx, smsID, "duplicate transaction"); err != nil {
		s.log.Warn("sms status update failed", "smsId", smsID, "error", err)
	}
	s.recorder.Record(ctx, telemetry.EventSmsDuplicates)

	result := &Result{SmsID: smsID, Status: StatusDuplicate}
	if paymentID != uuid.Nil {
		result.PaymentID = &paymentID
	}
	return result, nil
}

func (s *Service) markFailed(ctx context.Context, smsID uuid.UUID, status, reason string) {
	if err := s.sms.MarkFailed(ctx, smsID, status, reason); err != nil {
		s.log.Error("sms failure update failed", "smsId", smsID, "status", status, "error", err)
	}
}

func saccoPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ibimina-reconciliation-backend/internal/auth"
	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/repository"
	"ibimina-reconciliation-backend/internal/services/ledger"
	"ibimina-reconciliation-backend/internal/services/matching"
	"ibimina-reconciliation-backend/internal/services/telemetry"

	"github.com/google/uuid"
)

// MaxRows caps one statement upload. Bigger exports get split by the client.
const MaxRows = 5000

var (
	ErrForbidden     = errors.New("importer: actor may not import statements for this sacco")
	ErrNoScope       = errors.New("importer: no sacco scope resolved for actor")
	ErrGroupNotFound = errors.New("importer: ikimina not found")
	ErrGroupScope    = errors.New("importer: ikimina belongs to another sacco")
	ErrTooManyRows   = fmt.Errorf("importer: batch exceeds %d rows", MaxRows)
)

// occurredAtLayouts are the timestamp shapes seen in provider statement
// exports, tried in order.
var occurredAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

type Row struct {
	OccurredAt string  `json:"occurredAt"`
	TxnID      string  `json:"txnId"`
	Msisdn     string  `json:"msisdn"`
	Amount     float64 `json:"amount"`
	Reference  *string `json:"reference"`
}

type Request struct {
	SaccoID   *uuid.UUID
	IkiminaID *uuid.UUID
	Rows      []Row
	DryRun    bool
}

type ImportSummary struct {
	SaccoID          uuid.UUID  `json:"saccoId"`
	IkiminaID        *uuid.UUID `json:"ikiminaId,omitempty"`
	RowCount         int        `json:"rowCount"`
	Inserted         int        `json:"inserted"`
	Duplicates       int        `json:"duplicates"`
	ClientDuplicates int        `json:"clientDuplicates"`
	Posted           int        `json:"posted"`
	Unallocated      int        `json:"unallocated"`
	DryRun           bool       `json:"dryRun"`
}

type FieldError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects the whole batch: no row is applied while any row
// is malformed.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("importer: %d invalid row field(s)", len(e.Details))
}

// parsedRow is a Row after validation and normalization.
type parsedRow struct {
	occurredAt time.Time
	txnID      string
	msisdn     string
	amount     float64
	reference  *string
}

type Service struct {
	directory repository.DirectoryStore
	payments  repository.PaymentStore
	tx        repository.TxManager
	matcher   *matching.Matcher
	recorder  *telemetry.Recorder
	currency  string
	log       *slog.Logger
}

func NewService(
	directory repository.DirectoryStore,
	payments repository.PaymentStore,
	tx repository.TxManager,
	matcher *matching.Matcher,
	recorder *telemetry.Recorder,
	currency string,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		directory: directory,
		payments:  payments,
		tx:        tx,
		matcher:   matcher,
		recorder:  recorder,
		currency:  currency,
		log:       log,
	}
}

func (s *Service) Import(ctx context.Context, actor auth.Actor, req Request) (*ImportSummary, error) {
	scope := actor.ResolveScope(req.SaccoID)
	if scope == nil {
		return nil, ErrNoScope
	}
	saccoID := *scope
	if !actor.CanImportStatements(saccoID) {
		return nil, ErrForbidden
	}

	if len(req.Rows) == 0 {
		return nil, &ValidationError{Details: []FieldError{
			{Row: 0, Field: "rows", Message: "at least one row is required"},
		}}
	}
	if len(req.Rows) > MaxRows {
		return nil, ErrTooManyRows
	}

	var group *models.Ikimina
	if req.IkiminaID != nil {
		found, err := s.directory.GroupByID(ctx, *req.IkiminaID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, ErrGroupNotFound
		}
		if found.SaccoID != saccoID {
			return nil, ErrGroupScope
		}
		group = found
	}

	rows, details := parseRows(req.Rows)
	if len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}

	summary := &ImportSummary{
		SaccoID:   saccoID,
		IkiminaID: req.IkiminaID,
		RowCount:  len(req.Rows),
		DryRun:    req.DryRun,
	}

	// Rows repeating a txn id within the upload are counted once and
	// dropped here; rows already in storage are counted separately during
	// the apply. The two counts never overlap.
	unique := dedupeBatch(rows, summary)

	if req.DryRun {
		if err := s.preview(ctx, saccoID, group, unique, summary); err != nil {
			return nil, err
		}
		return summary, nil
	}

	err := s.tx.InTx(ctx, func(stores repository.Stores) error {
		poster := ledger.NewPoster(stores.Ledger)
		for _, row := range unique {
			if err := s.applyRow(ctx, stores.Payments, poster, saccoID, group, row, summary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.recorder.Audit(ctx, telemetry.AuditEntry{
		SaccoID:  &saccoID,
		Action:   "STATEMENT_IMPORT",
		Entity:   "PAYMENTS",
		EntityID: saccoID.String(),
		Diff: map[string]interface{}{
			"rowCount":         summary.RowCount,
			"inserted":         summary.Inserted,
			"duplicates":       summary.Duplicates,
			"clientDuplicates": summary.ClientDuplicates,
		},
		Actor: actor.ID,
	}); err != nil {
		s.log.Warn("audit write failed", "saccoId", saccoID, "error", err)
	}
	s.recorder.Record(ctx, telemetry.EventStatementImported)

	return summary, nil
}

func (s *Service) applyRow(
	ctx context.Context,
	payments repository.PaymentStore,
	poster *ledger.Poster,
	saccoID uuid.UUID,
	group *models.Ikimina,
	row parsedRow,
	summary *ImportSummary,
) error {
	match, err := s.classify(ctx, saccoID, group, row)
	if err != nil {
		return err
	}

	payment := &models.Payment{
		ID:         uuid.New(),
		SaccoID:    saccoID,
		IkiminaID:  match.IkiminaID,
		MemberID:   match.MemberID,
		Channel:    models.ChannelStatement,
		Msisdn:     row.msisdn,
		Amount:     row.amount,
		Currency:   s.currency,
		TxnID:      row.txnID,
		Reference:  row.reference,
		OccurredAt: row.occurredAt,
		Status:     match.Status,
		Confidence: 1,
		CreatedAt:  time.Now().UTC(),
	}

	inserted, err := payments.Insert(ctx, payment)
	if err != nil {
		return err
	}
	if !inserted {
		summary.Duplicates++
		return nil
	}

	summary.Inserted++
	switch payment.Status {
	case models.PaymentStatusPosted:
		summary.Posted++
		if err := poster.Post(ctx, payment); err != nil {
			return err
		}
	case models.PaymentStatusUnallocated:
		summary.Unallocated++
	}
	return nil
}

// preview runs the classification and duplicate checks without writing.
func (s *Service) preview(
	ctx context.Context,
	saccoID uuid.UUID,
	group *models.Ikimina,
	rows []parsedRow,
	summary *ImportSummary,
) error {
	for _, row := range rows {
		existing, err := s.payments.FindByTxn(ctx, saccoID, row.txnID)
		if err != nil {
			return err
		}
		if existing != nil {
			summary.Duplicates++
			continue
		}

		match, err := s.classify(ctx, saccoID, group, row)
		if err != nil {
			return err
		}
		summary.Inserted++
		if match.Status == models.PaymentStatusPosted {
			summary.Posted++
		} else {
			summary.Unallocated++
		}
	}
	return nil
}

// classify resolves one row against the directory. A fixed batch group wins
// over whatever the reference resolves to; the matcher then only contributes
// the member within that group.
func (s *Service) classify(
	ctx context.Context,
	saccoID uuid.UUID,
	group *models.Ikimina,
	row parsedRow,
) (matching.Result, error) {
	reference := ""
	if row.reference != nil {
		reference = *row.reference
	}

	match, err := s.matcher.Match(ctx, matching.Input{
		SaccoID:   saccoID,
		Reference: reference,
		Msisdn:    row.msisdn,
	})
	if err != nil {
		return match, err
	}

	if group != nil {
		if match.IkiminaID == nil || *match.IkiminaID != group.ID {
			match.MemberID = nil
		}
		match.SaccoID = saccoID
		match.IkiminaID = &group.ID
		match.Status = models.PaymentStatusPosted
	}
	return match, nil
}

func parseRows(rows []Row) ([]parsedRow, []FieldError) {
	parsed := make([]parsedRow, 0, len(rows))
	var details []FieldError

	for i, row := range rows {
		n := i + 1

		occurredAt, ok := parseOccurredAt(row.OccurredAt)
		if !ok {
			details = append(details, FieldError{Row: n, Field: "occurredAt", Message: "unparseable timestamp"})
		}

		txnID := models.NormalizeTxnID(row.TxnID)
		if len(txnID) < 3 {
			details = append(details, FieldError{Row: n, Field: "txnId", Message: "must be at least 3 characters"})
		}

		msisdn := stripSpaces(row.Msisdn)
		if len(msisdn) < 6 {
			details = append(details, FieldError{Row: n, Field: "msisdn", Message: "must be at least 6 characters"})
		}

		if row.Amount <= 0 {
			details = append(details, FieldError{Row: n, Field: "amount", Message: "must be positive"})
		}

		var reference *string
		if row.Reference != nil {
			if trimmed := strings.TrimSpace(*row.Reference); trimmed != "" {
				reference = &trimmed
			}
		}

		parsed = append(parsed, parsedRow{
			occurredAt: occurredAt,
			txnID:      txnID,
			msisdn:     msisdn,
			amount:     row.Amount,
			reference:  reference,
		})
	}

	return parsed, details
}

func parseOccurredAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range occurredAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func dedupeBatch(rows []parsedRow, summary *ImportSummary) []parsedRow {
	seen := make(map[string]struct{}, len(rows))
	unique := make([]parsedRow, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.txnID]; dup {
			summary.ClientDuplicates++
			continue
		}
		seen[row.txnID] = struct{}{}
		unique = append(unique, row)
	}
	return unique
}

func stripSpaces(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}

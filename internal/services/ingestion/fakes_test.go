package ingestion

import (
	"context"
	"sync"

	"ibimina-reconciliation-backend/internal/events"
	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type fakeSmsStore struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*models.SmsMessage
}

func newFakeSmsStore() *fakeSmsStore {
	return &fakeSmsStore{messages: make(map[uuid.UUID]*models.SmsMessage)}
}

func (f *fakeSmsStore) Insert(_ context.Context, msg *models.SmsMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *msg
	f.messages[msg.ID] = &stored
	return nil
}

func (f *fakeSmsStore) MarkParsed(_ context.Context, id uuid.UUID, details datatypes.JSON, confidence float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.messages[id]; ok {
		msg.Status = models.SmsStatusParsed
		msg.ParseDetails = details
		msg.Confidence = confidence
	}
	return nil
}

func (f *fakeSmsStore) MarkApplied(_ context.Context, id uuid.UUID, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.messages[id]; ok {
		msg.Status = models.SmsStatusApplied
		msg.Error = note
	}
	return nil
}

func (f *fakeSmsStore) MarkFailed(_ context.Context, id uuid.UUID, status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.messages[id]; ok {
		msg.Status = status
		msg.Error = reason
	}
	return nil
}

func (f *fakeSmsStore) Summary(_ context.Context, saccoID *uuid.UUID) (*repository.StatusSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &repository.StatusSummary{}
	for _, msg := range f.messages {
		if saccoID != nil && (msg.SaccoID == nil || *msg.SaccoID != *saccoID) {
			continue
		}
		summary.TotalMessages++
		if msg.Status == models.SmsStatusNew || msg.Status == models.SmsStatusPendingReview {
			summary.PendingMessages++
		}
		if summary.LastMessageAt == nil || msg.ReceivedAt.After(*summary.LastMessageAt) {
			at := msg.ReceivedAt
			status := msg.Status
			summary.LastMessageAt = &at
			summary.LastMessageStatus = &status
		}
	}
	return summary, nil
}

func (f *fakeSmsStore) get(id uuid.UUID) *models.SmsMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[id]
}

type paymentKey struct {
	sacco uuid.UUID
	txn   string
}

type fakePaymentStore struct {
	mu   sync.Mutex
	rows map[paymentKey]*models.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{rows: make(map[paymentKey]*models.Payment)}
}

func (f *fakePaymentStore) Insert(_ context.Context, p *models.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.TxnID = models.NormalizeTxnID(p.TxnID)
	key := paymentKey{sacco: p.SaccoID, txn: p.TxnID}
	if _, exists := f.rows[key]; exists {
		return false, nil
	}
	stored := *p
	f.rows[key] = &stored
	return true, nil
}

func (f *fakePaymentStore) FindByTxn(_ context.Context, saccoID uuid.UUID, txnID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[paymentKey{sacco: saccoID, txn: models.NormalizeTxnID(txnID)}]; ok {
		return p, nil
	}
	return nil, nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentStore) ListByStatus(_ context.Context, saccoID uuid.UUID, status string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.rows {
		if p.SaccoID == saccoID && p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) UpdateAssignment(_ context.Context, saccoID *uuid.UUID, ids []uuid.UUID, ikiminaID uuid.UUID, memberID *uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for _, p := range f.rows {
		for _, id := range ids {
			if p.ID != id {
				continue
			}
			if saccoID != nil && p.SaccoID != *saccoID {
				continue
			}
			p.IkiminaID = &ikiminaID
			p.Status = models.PaymentStatusPosted
			if memberID != nil {
				p.MemberID = memberID
			}
			updated++
		}
	}
	return updated, nil
}

func (f *fakePaymentStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeLedgerStore struct {
	mu      sync.Mutex
	entries []models.LedgerEntry
}

func (f *fakeLedgerStore) ExistsForPayment(_ context.Context, paymentID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.PaymentID == paymentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerStore) Insert(_ context.Context, entries ...models.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (f *fakeAuditStore) Append(_ context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type fakeMetricStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeMetricStore() *fakeMetricStore {
	return &fakeMetricStore{counts: make(map[string]int64)}
}

func (f *fakeMetricStore) Increment(_ context.Context, event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[event]++
	return nil
}

func (f *fakeMetricStore) Get(_ context.Context, event string) (*models.SystemMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, ok := f.counts[event]
	if !ok {
		return nil, nil
	}
	return &models.SystemMetric{Event: event, Total: total}, nil
}

type fakeDirectory struct {
	groups  []models.Ikimina
	members []models.Member
}

func (f *fakeDirectory) GroupByCode(_ context.Context, code string) (*models.Ikimina, error) {
	for i := range f.groups {
		if f.groups[i].Code == code && f.groups[i].Status == models.DirectoryStatusActive {
			return &f.groups[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) GroupByID(_ context.Context, id uuid.UUID) (*models.Ikimina, error) {
	for i := range f.groups {
		if f.groups[i].ID == id {
			return &f.groups[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) MemberByCode(_ context.Context, ikiminaID uuid.UUID, code string) (*models.Member, error) {
	for i := range f.members {
		if f.members[i].IkiminaID == ikiminaID && f.members[i].MemberCode == code {
			return &f.members[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) MembersByMsisdn(_ context.Context, saccoID uuid.UUID, msisdn string) ([]models.Member, error) {
	var hits []models.Member
	for _, m := range f.members {
		if m.Msisdn != msisdn {
			continue
		}
		if saccoID != uuid.Nil && m.SaccoID != saccoID {
			continue
		}
		hits = append(hits, m)
	}
	return hits, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.PostedPayment
}

func (f *fakePublisher) PublishPosted(_ context.Context, event events.PostedPayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

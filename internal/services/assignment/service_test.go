package assignment

import (
	"context"
	"testing"

	"ibimina-reconciliation-backend/internal/auth"
	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/services/ledger"
	"ibimina-reconciliation-backend/internal/services/telemetry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentStore struct {
	rows []*models.Payment
}

func (f *fakePaymentStore) Insert(_ context.Context, p *models.Payment) (bool, error) {
	stored := *p
	f.rows = append(f.rows, &stored)
	return true, nil
}

func (f *fakePaymentStore) FindByTxn(context.Context, uuid.UUID, string) (*models.Payment, error) {
	return nil, nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	for _, p := range f.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentStore) ListByStatus(context.Context, uuid.UUID, string) ([]models.Payment, error) {
	return nil, nil
}

func (f *fakePaymentStore) UpdateAssignment(_ context.Context, saccoID *uuid.UUID, ids []uuid.UUID, ikiminaID uuid.UUID, memberID *uuid.UUID) (int64, error) {
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

type fakeDirectory struct {
	groups []models.Ikimina
}

func (f *fakeDirectory) GroupByCode(context.Context, string) (*models.Ikimina, error) {
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

func (f *fakeDirectory) MemberByCode(context.Context, uuid.UUID, string) (*models.Member, error) {
	return nil, nil
}

func (f *fakeDirectory) MembersByMsisdn(context.Context, uuid.UUID, string) ([]models.Member, error) {
	return nil, nil
}

type fakeAuditStore struct {
	entries []*models.AuditLog
}

func (f *fakeAuditStore) Append(_ context.Context, entry *models.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeLedgerStore struct {
	entries []models.LedgerEntry
}

func (f *fakeLedgerStore) ExistsForPayment(_ context.Context, paymentID uuid.UUID) (bool, error) {
	for _, e := range f.entries {
		if e.PaymentID == paymentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerStore) Insert(_ context.Context, entries ...models.LedgerEntry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

type fakeMetricStore struct {
	counts map[string]int64
}

func (f *fakeMetricStore) Increment(_ context.Context, event string) error {
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[event]++
	return nil
}

func (f *fakeMetricStore) Get(context.Context, string) (*models.SystemMetric, error) {
	return nil, nil
}

type harness struct {
	service  *Service
	payments *fakePaymentStore
	ledger   *fakeLedgerStore
	audits   *fakeAuditStore
	metrics  *fakeMetricStore

	saccoID uuid.UUID
	groupID uuid.UUID
	manager auth.Actor
}

func newHarness() *harness {
	saccoID := uuid.New()
	group := models.Ikimina{
		ID:      uuid.New(),
		SaccoID: saccoID,
		Code:    "TWIZ",
		Status:  models.DirectoryStatusActive,
	}

	h := &harness{
		payments: &fakePaymentStore{},
		ledger:   &fakeLedgerStore{},
		audits:   &fakeAuditStore{},
		metrics:  &fakeMetricStore{},
		saccoID:  saccoID,
		groupID:  group.ID,
		manager:  auth.Actor{ID: "manager-1", Role: auth.RoleSaccoManager, SaccoID: &saccoID},
	}
	h.service = NewService(
		h.payments,
		&fakeDirectory{groups: []models.Ikimina{group}},
		ledger.NewPoster(h.ledger),
		telemetry.NewRecorder(h.audits, h.metrics, nil),
		nil,
	)
	return h
}

func (h *harness) addPayment(saccoID uuid.UUID) uuid.UUID {
	payment := &models.Payment{
		ID:       uuid.New(),
		SaccoID:  saccoID,
		TxnID:    uuid.NewString(),
		Amount:   5000,
		Currency: "RWF",
		Status:   models.PaymentStatusUnallocated,
	}
	h.payments.Insert(context.Background(), payment)
	return payment.ID
}

func TestAssignUpdatesAndAudits(t *testing.T) {
	h := newHarness()
	first := h.addPayment(h.saccoID)
	second := h.addPayment(h.saccoID)
	memberID := uuid.New()

	result, err := h.service.Assign(context.Background(), h.manager, Request{
		IDs:       []uuid.UUID{first, second},
		IkiminaID: h.groupID,
		MemberID:  &memberID,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Updated)

	payment, err := h.payments.GetByID(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPosted, payment.Status)
	require.NotNil(t, payment.IkiminaID)
	assert.Equal(t, h.groupID, *payment.IkiminaID)
	require.NotNil(t, payment.MemberID)
	assert.Equal(t, memberID, *payment.MemberID)

	require.Len(t, h.audits.entries, 1)
	assert.Equal(t, "PAYMENT_ASSIGN", h.audits.entries[0].Action)
	assert.Equal(t, int64(1), h.metrics.counts[telemetry.EventPaymentAction])

	// Each reassigned payment gets its debit/credit pair.
	assert.Len(t, h.ledger.entries, 4)
}

func TestAssignExcludesForeignTenantRows(t *testing.T) {
	h := newHarness()
	own := h.addPayment(h.saccoID)
	foreign := h.addPayment(uuid.New())

	result, err := h.service.Assign(context.Background(), h.manager, Request{
		IDs:       []uuid.UUID{own, foreign},
		IkiminaID: h.groupID,
	})
	require.NoError(t, err)

	// The foreign row falls out of the filtered update, not an error.
	assert.Equal(t, int64(1), result.Updated)

	untouched, err := h.payments.GetByID(context.Background(), foreign)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnallocated, untouched.Status)
}

func TestAssignValidation(t *testing.T) {
	h := newHarness()
	id := h.addPayment(h.saccoID)

	_, err := h.service.Assign(context.Background(), h.manager, Request{IkiminaID: h.groupID})
	assert.ErrorIs(t, err, ErrNoIDs)

	_, err = h.service.Assign(context.Background(), h.manager, Request{IDs: []uuid.UUID{id}})
	assert.ErrorIs(t, err, ErrGroupRequired)

	missing := uuid.New()
	_, err = h.service.Assign(context.Background(), h.manager, Request{IDs: []uuid.UUID{id}, IkiminaID: missing})
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestAssignForeignStaffForbidden(t *testing.T) {
	h := newHarness()
	id := h.addPayment(h.saccoID)
	otherSacco := uuid.New()
	stranger := auth.Actor{ID: "staff-2", Role: auth.RoleSaccoStaff, SaccoID: &otherSacco}

	_, err := h.service.Assign(context.Background(), stranger, Request{
		IDs:       []uuid.UUID{id},
		IkiminaID: h.groupID,
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, h.audits.entries)
}

func TestAssignAdminCrossTenant(t *testing.T) {
	h := newHarness()
	id := h.addPayment(h.saccoID)
	admin := auth.Actor{ID: "admin-1", Role: auth.RoleSystemAdmin}

	result, err := h.service.Assign(context.Background(), admin, Request{
		IDs:       []uuid.UUID{id},
		IkiminaID: h.groupID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Updated)
}

func TestAssignLastWriteWins(t *testing.T) {
	h := newHarness()
	id := h.addPayment(h.saccoID)
	firstMember := uuid.New()
	secondMember := uuid.New()

	_, err := h.service.Assign(context.Background(), h.manager, Request{
		IDs: []uuid.UUID{id}, IkiminaID: h.groupID, MemberID: &firstMember,
	})
	require.NoError(t, err)
	_, err = h.service.Assign(context.Background(), h.manager, Request{
		IDs: []uuid.UUID{id}, IkiminaID: h.groupID, MemberID: &secondMember,
	})
	require.NoError(t, err)

	payment, err := h.payments.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, payment.MemberID)
	assert.Equal(t, secondMember, *payment.MemberID)
}

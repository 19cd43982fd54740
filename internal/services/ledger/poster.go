package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNonPositiveAmount = errors.New("ledger: amount must be positive")

// Poster turns one POSTED payment into a balanced debit/credit pair: money
// leaves the SACCO's mobile-money float account and enters the group's
// account. Idempotent per payment.
type Poster struct {
	store repository.LedgerStore
}

func NewPoster(store repository.LedgerStore) *Poster {
	return &Poster{store: store}
}

func (p *Poster) Post(ctx context.Context, payment *models.Payment) error {
	amount := decimal.NewFromFloat(payment.Amount)
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrNonPositiveAmount
	}
	if payment.IkiminaID == nil {
		return fmt.Errorf("ledger: payment %s has no group to post to", payment.ID)
	}

	exists, err := p.store.ExistsForPayment(ctx, payment.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	now := time.Now().UTC()
	debit := models.LedgerEntry{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		AccountID: "MOMO:" + payment.SaccoID.String(),
		Amount:    amount.Neg(),
		Currency:  payment.Currency,
		CreatedAt: now,
	}
	credit := models.LedgerEntry{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		AccountID: "IKIMINA:" + payment.IkiminaID.String(),
		Amount:    amount,
		Currency:  payment.Currency,
		CreatedAt: now,
	}

	return p.store.Insert(ctx, debit, credit)
}

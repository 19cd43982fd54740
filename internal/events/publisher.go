package events

import (
	"context"

	"github.com/google/uuid"
)

// PostedPayment is emitted once a payment has been posted to the ledger.
type PostedPayment struct {
	PaymentID uuid.UUID  `json:"paymentId"`
	SaccoID   uuid.UUID  `json:"saccoId"`
	IkiminaID *uuid.UUID `json:"ikiminaId"`
	MemberID  *uuid.UUID `json:"memberId"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	TxnID     string     `json:"txnId"`
}

type Publisher interface {
	PublishPosted(ctx context.Context, event PostedPayment) error
	Close() error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPosted(context.Context, PostedPayment) error { return nil }

func (NoopPublisher) Close() error { return nil }

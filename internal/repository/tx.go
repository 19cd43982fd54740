package repository

import (
	"context"

	"gorm.io/gorm"
)

// Stores bundles the stores that take part in an atomic batch apply.
type Stores struct {
	Payments PaymentStore
	Ledger   LedgerStore
}

// TxManager runs a function against transaction-bound stores. Either every
// write inside fn commits or none do.
type TxManager interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) InTx(ctx context.Context, fn func(Stores) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Stores{
			Payments: NewPaymentRepository(tx),
			Ledger:   NewLedgerRepository(tx),
		})
	})
}

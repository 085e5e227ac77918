package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"sodai-platform/internal/domain"
)

type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase" // settled checkout, positive amount
	TransactionUsage    TransactionType = "usage"    // generation spend, negative amount
	TransactionBonus    TransactionType = "bonus"    // welcome or promotional grant
)

// Transaction is one immutable entry of the append-only balance log.
// Entries are never updated or deleted. PaymentID, when set, is the
// idempotency key: at most one transaction per (account, payment id).
type Transaction struct {
	ID          string // ULID, sortable within the log
	AccountID   string
	Amount      int64 // signed; negative for usage
	Type        TransactionType
	Description string
	PaymentID   string // gateway payment id, empty unless type is purchase
	CreatedAt   time.Time
}

func NewTransaction(accountID string, amount int64, typ TransactionType, description, paymentID string) (*Transaction, error) {
	if accountID == "" || amount == 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch typ {
	case TransactionPurchase, TransactionUsage, TransactionBonus:
	default:
		return nil, domain.ErrInvalidArgument
	}
	if typ == TransactionUsage && amount > 0 {
		return nil, domain.ErrInvalidArgument
	}
	if typ != TransactionUsage && amount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Transaction{
		ID:          ulid.Make().String(),
		AccountID:   accountID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		PaymentID:   paymentID,
		CreatedAt:   time.Now(),
	}, nil
}

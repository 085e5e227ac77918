package repository

import (
	"context"

	"sodai-platform/internal/domain/model"
)

// -----------------------------
// Transactions (append-only)
// -----------------------------

type TransactionRepository interface {
	// Append inserts one log entry. Inserting a second entry with the same
	// (account, payment id) pair fails with domain.ErrAlreadyExists.
	Append(ctx context.Context, tx Tx, t *model.Transaction) error

	FindByPaymentID(ctx context.Context, tx Tx, accountID, paymentID string) (*model.Transaction, error)
	ListByAccount(ctx context.Context, tx Tx, accountID string, limit int) ([]*model.Transaction, error)

	// SumByAccount recomputes the balance from the log, for audits.
	SumByAccount(ctx context.Context, tx Tx, accountID string) (int64, error)
}

package repository

import (
	"context"
	"time"

	"sodai-platform/internal/domain/model"
)

// -----------------------------
// Payment sessions
// -----------------------------

type PaymentSessionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.PaymentSession) error
	FindByToken(ctx context.Context, tx Tx, token string) (*model.PaymentSession, error)

	// MarkCompleted transitions pending -> completed and records the gateway
	// payment id. Returns false when the session was no longer pending.
	MarkCompleted(ctx context.Context, tx Tx, token, paymentID string) (bool, error)

	// MarkFailed transitions pending -> failed and stores the gateway error.
	// Returns false when the session was no longer pending.
	MarkFailed(ctx context.Context, tx Tx, token, errorMessage string) (bool, error)

	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentSession, error)
}

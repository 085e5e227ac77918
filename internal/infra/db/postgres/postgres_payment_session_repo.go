package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/repository"
)

var _ repository.PaymentSessionRepository = (*paymentSessionRepo)(nil)

type paymentSessionRepo struct{ pool *pgxpool.Pool }

func NewPaymentSessionRepo(pool *pgxpool.Pool) *paymentSessionRepo {
	return &paymentSessionRepo{pool: pool}
}

const sessionColumns = `id, account_id, package_id, conversation_id, token, credits, bonus_credits, amount, status, payment_id, error_message, created_at, updated_at`

func (r *paymentSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error {
	const q = `
INSERT INTO payment_sessions (
  id, account_id, package_id, conversation_id, token, credits, bonus_credits, amount, status, payment_id, error_message, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),NULLIF($11,''),$12,$13
);`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.AccountID, s.PackageID, s.ConversationID, s.Token,
		s.Credits, s.BonusCredits, s.Amount, s.Status, s.PaymentID, s.ErrorMessage,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentSessionRepo) FindByToken(ctx context.Context, tx repository.Tx, token string) (*model.PaymentSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM payment_sessions WHERE token=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return nil, err
	}
	return scanSession(row)
}

// MarkCompleted and MarkFailed use a conditional status predicate: only one
// of the two can ever fire for a session, and each at most once.
func (r *paymentSessionRepo) MarkCompleted(ctx context.Context, tx repository.Tx, token, paymentID string) (bool, error) {
	const q = `
UPDATE payment_sessions
   SET status = 'completed',
       payment_id = $2,
       updated_at = NOW()
 WHERE token = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, token, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentSessionRepo) MarkFailed(ctx context.Context, tx repository.Tx, token, errorMessage string) (bool, error) {
	const q = `
UPDATE payment_sessions
   SET status = 'failed',
       error_message = $2,
       updated_at = NOW()
 WHERE token = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, token, errorMessage)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentSessionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentSession, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + sessionColumns + ` FROM payment_sessions WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func scanSession(row pgx.Row) (*model.PaymentSession, error) {
	s := &model.PaymentSession{}
	var paymentID, errorMessage *string
	if err := row.Scan(
		&s.ID, &s.AccountID, &s.PackageID, &s.ConversationID, &s.Token,
		&s.Credits, &s.BonusCredits, &s.Amount, &s.Status, &paymentID, &errorMessage,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if paymentID != nil {
		s.PaymentID = *paymentID
	}
	if errorMessage != nil {
		s.ErrorMessage = *errorMessage
	}
	return s, nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, account_id, amount, type, description, payment_id, created_at`

func (r *transactionRepo) Append(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (id, account_id, amount, type, description, payment_id, created_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7);`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.AccountID, t.Amount, t.Type, t.Description, t.PaymentID, t.CreatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		var pgErr *pgconn.PgError
		// 23505: the partial unique index on (account_id, payment_id)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, accountID, paymentID string) (*model.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id=$1 AND payment_id=$2 LIMIT 1`
	row, err := pickRow(ctx, r.pool, tx, q, accountID, paymentID)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) ListByAccount(ctx context.Context, tx repository.Tx, accountID string, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id=$1 ORDER BY id DESC LIMIT $2`
	rows, err := queryRows(ctx, r.pool, tx, q, accountID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *transactionRepo) SumByAccount(ctx context.Context, tx repository.Tx, accountID string) (int64, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COALESCE(SUM(amount),0) FROM transactions WHERE account_id=$1;`, accountID)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var paymentID *string
	if err := row.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Type, &t.Description, &paymentID, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if paymentID != nil {
		t.PaymentID = *paymentID
	}
	return t, nil
}

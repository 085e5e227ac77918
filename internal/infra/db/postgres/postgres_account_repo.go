package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*accountRepo)(nil)

type accountRepo struct{ pool *pgxpool.Pool }

func NewAccountRepo(pool *pgxpool.Pool) *accountRepo {
	return &accountRepo{pool: pool}
}

func (r *accountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, full_name, credits, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET full_name=$2, updated_at=$5;`

	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.FullName, a.Credits, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *accountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	q := `SELECT id, full_name, credits, created_at, updated_at FROM accounts WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	a := &model.Account{}
	if err := row.Scan(&a.ID, &a.FullName, &a.Credits, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}

// DeductCredits is the single atomic unit behind every usage deduction:
// balance check and decrement happen in one conditional statement, so two
// concurrent deductions can never both observe a stale sufficient balance.
func (r *accountRepo) DeductCredits(ctx context.Context, tx repository.Tx, id string, amount int64) (bool, error) {
	const q = `
UPDATE accounts
   SET credits = credits - $2,
       updated_at = NOW()
 WHERE id = $1
   AND credits >= $2;`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *accountRepo) AddCredits(ctx context.Context, tx repository.Tx, id string, amount int64) error {
	const q = `UPDATE accounts SET credits = credits + $2, updated_at = NOW() WHERE id = $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) CountAccounts(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM accounts;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

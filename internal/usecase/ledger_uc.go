package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
	"sodai-platform/internal/domain/ports/repository"
	"sodai-platform/internal/infra/logging"
	"sodai-platform/internal/infra/metrics"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase is the single writer over accounts and their transaction
// log. It owns the invariant credits == SUM(transactions.amount): every
// balance mutation commits together with exactly one appended entry.
type LedgerUseCase interface {
	// OpenAccount provisions the account on first sight of a new identity,
	// with the welcome grant recorded as one bonus transaction. Calling it
	// for a known account returns the existing row untouched.
	OpenAccount(ctx context.Context, id, fullName string) (*model.Account, error)

	// Deduct atomically decrements the balance and appends a usage entry.
	// Fails with ErrInsufficientCredits (no partial deduction) or
	// ErrAccountNotFound.
	Deduct(ctx context.Context, accountID string, amount int64, reason string) (int64, error)

	// Credit increments the balance and appends an entry. With a non-empty
	// idempotencyKey (a gateway payment id), a repeated call is a no-op
	// returning the current balance.
	Credit(ctx context.Context, accountID string, amount int64, typ model.TransactionType, description, idempotencyKey string) (int64, error)

	// Balance returns the cached balance, read-after-write consistent per
	// account.
	Balance(ctx context.Context, accountID string) (int64, error)

	History(ctx context.Context, accountID string, limit int) ([]*model.Transaction, error)

	// VerifyBalance recomputes the balance from the log and compares it to
	// the cached projection.
	VerifyBalance(ctx context.Context, accountID string) (bool, error)
}

type ledgerUC struct {
	accounts repository.AccountRepository
	entries  repository.TransactionRepository
	tm       repository.TransactionManager
	events   adapter.BalancePublisher
	backoff  time.Duration
	log      *zerolog.Logger
}

func NewLedgerUseCase(
	accounts repository.AccountRepository,
	entries repository.TransactionRepository,
	tm repository.TransactionManager,
	events adapter.BalancePublisher,
	logger *zerolog.Logger,
) *ledgerUC {
	return &ledgerUC{
		accounts: accounts,
		entries:  entries,
		tm:       tm,
		events:   events,
		backoff:  200 * time.Millisecond,
		log:      logger,
	}
}

func (u *ledgerUC) OpenAccount(ctx context.Context, id, fullName string) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.OpenAccount")()

	acc, err := model.NewAccount(id, fullName)
	if err != nil {
		return nil, err
	}

	var result *model.Account
	var created bool
	var welcome *model.Transaction
	op := func() error {
		created = false
		txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
		return u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
			existing, err := u.accounts.FindByID(ctx, tx, id)
			if err == nil {
				result = existing
				return nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			acc.Credits = model.WelcomeCredits
			if err := u.accounts.Save(ctx, tx, acc); err != nil {
				return err
			}
			t, err := model.NewTransaction(id, model.WelcomeCredits, model.TransactionBonus, model.WelcomeDescription, "")
			if err != nil {
				return err
			}
			if err := u.entries.Append(ctx, tx, t); err != nil {
				return err
			}
			result = acc
			welcome = t
			created = true
			return nil
		})
	}
	if err := u.runWrite(ctx, op); err != nil {
		return nil, err
	}
	if created {
		metrics.IncLedgerTransaction(string(model.TransactionBonus))
		u.publish(ctx, welcome, result.Credits)
	}
	return result, nil
}

func (u *ledgerUC) Deduct(ctx context.Context, accountID string, amount int64, reason string) (int64, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Deduct")()

	if accountID == "" || amount <= 0 {
		return 0, domain.ErrInvalidArgument
	}

	var balance int64
	var entry *model.Transaction
	op := func() error {
		entry = nil
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			applied, err := u.accounts.DeductCredits(ctx, tx, accountID, amount)
			if err != nil {
				return err
			}
			if !applied {
				// Either the account is unknown or the balance is short;
				// one read tells the two apart.
				if _, err := u.accounts.FindByID(ctx, tx, accountID); err != nil {
					if errors.Is(err, domain.ErrNotFound) {
						return domain.ErrAccountNotFound
					}
					return err
				}
				return domain.ErrInsufficientCredits
			}

			t, err := model.NewTransaction(accountID, -amount, model.TransactionUsage, reason, "")
			if err != nil {
				return err
			}
			if err := u.entries.Append(ctx, tx, t); err != nil {
				return err
			}
			acc, err := u.accounts.FindByID(ctx, tx, accountID)
			if err != nil {
				return err
			}
			balance = acc.Credits
			entry = t
			return nil
		})
	}
	if err := u.runWrite(ctx, op); err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncDeductDenied()
		}
		return 0, err
	}
	metrics.IncLedgerTransaction(string(model.TransactionUsage))
	u.publish(ctx, entry, balance)
	return balance, nil
}

func (u *ledgerUC) Credit(ctx context.Context, accountID string, amount int64, typ model.TransactionType, description, idempotencyKey string) (int64, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Credit")()

	if accountID == "" || amount <= 0 || typ == model.TransactionUsage {
		return 0, domain.ErrInvalidArgument
	}

	var balance int64
	var entry *model.Transaction
	var duplicate bool
	op := func() error {
		entry = nil
		duplicate = false
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if idempotencyKey != "" {
				_, err := u.entries.FindByPaymentID(ctx, tx, accountID, idempotencyKey)
				if err == nil {
					duplicate = true
					acc, err := u.accounts.FindByID(ctx, tx, accountID)
					if err != nil {
						return err
					}
					balance = acc.Credits
					return nil
				}
				if !errors.Is(err, domain.ErrNotFound) {
					return err
				}
			}

			if err := u.accounts.AddCredits(ctx, tx, accountID, amount); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrAccountNotFound
				}
				return err
			}
			t, err := model.NewTransaction(accountID, amount, typ, description, idempotencyKey)
			if err != nil {
				return err
			}
			if err := u.entries.Append(ctx, tx, t); err != nil {
				return err
			}
			acc, err := u.accounts.FindByID(ctx, tx, accountID)
			if err != nil {
				return err
			}
			balance = acc.Credits
			entry = t
			return nil
		})
	}
	if err := u.runWrite(ctx, op); err != nil {
		// A concurrent settle with the same key committed first; the unique
		// index rolled this increment back. Treat as the no-op path.
		if errors.Is(err, domain.ErrAlreadyExists) && idempotencyKey != "" {
			return u.Balance(ctx, accountID)
		}
		return 0, err
	}
	if duplicate {
		u.log.Debug().Str("account_id", accountID).Str("payment_id", idempotencyKey).Msg("credit replay suppressed")
		return balance, nil
	}
	metrics.IncLedgerTransaction(string(typ))
	u.publish(ctx, entry, balance)
	return balance, nil
}

func (u *ledgerUC) Balance(ctx context.Context, accountID string) (int64, error) {
	acc, err := u.accounts.FindByID(ctx, repository.NoTX, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, err
	}
	return acc.Credits, nil
}

func (u *ledgerUC) History(ctx context.Context, accountID string, limit int) ([]*model.Transaction, error) {
	return u.entries.ListByAccount(ctx, repository.NoTX, accountID, limit)
}

func (u *ledgerUC) VerifyBalance(ctx context.Context, accountID string) (bool, error) {
	acc, err := u.accounts.FindByID(ctx, repository.NoTX, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrAccountNotFound
		}
		return false, err
	}
	sum, err := u.entries.SumByAccount(ctx, repository.NoTX, accountID)
	if err != nil {
		return false, err
	}
	return acc.Credits == sum, nil
}

// runWrite retries a failed ledger write exactly once. A write that did not
// return success is treated as not having happened; after the retry fails
// the ledger is reported unavailable.
func (u *ledgerUC) runWrite(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !storageFailure(err) {
		return err
	}
	u.log.Warn().Err(err).Dur("backoff", u.backoff).Msg("ledger write failed, retrying once")
	select {
	case <-time.After(u.backoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err = op(); err == nil {
		return nil
	}
	if storageFailure(err) {
		return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	return err
}

// storageFailure separates transient storage errors from business outcomes
// that must never be retried.
func storageFailure(err error) bool {
	switch {
	case errors.Is(err, domain.ErrInsufficientCredits),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidExecContext),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (u *ledgerUC) publish(ctx context.Context, entry *model.Transaction, balance int64) {
	if u.events == nil || entry == nil {
		return
	}
	ev := adapter.BalanceEvent{
		AccountID:     entry.AccountID,
		Balance:       balance,
		TransactionID: entry.ID,
		Amount:        entry.Amount,
	}
	if err := u.events.PublishBalance(ctx, ev); err != nil {
		u.log.Warn().Err(err).Str("account_id", entry.AccountID).Msg("balance event publish failed")
	}
}

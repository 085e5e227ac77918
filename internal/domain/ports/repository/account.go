package repository

import (
	"context"

	"sodai-platform/internal/domain/model"
)

// -----------------------------
// Accounts
// -----------------------------

type AccountRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Account) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Account, error)

	// DeductCredits decrements the balance only when it stays non-negative:
	// UPDATE accounts SET credits = credits - $n WHERE id=$1 AND credits >= $n.
	// Returns false when the row was not updated (missing account or
	// insufficient balance); the caller disambiguates.
	DeductCredits(ctx context.Context, tx Tx, id string, amount int64) (bool, error)

	// AddCredits unconditionally increments the balance.
	AddCredits(ctx context.Context, tx Tx, id string, amount int64) error

	CountAccounts(ctx context.Context, tx Tx) (int, error)
}

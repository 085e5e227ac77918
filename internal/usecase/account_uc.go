package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/repository"
	"sodai-platform/internal/infra/logging"
)

// Compile-time check
var _ AccountUseCase = (*accountUC)(nil)

// AccountUseCase resolves an authenticated identity to its Account before
// any ledger operation proceeds. Provisioning of first-time identities is
// delegated to the ledger so the welcome grant stays a logged transaction.
type AccountUseCase interface {
	ResolveAccount(ctx context.Context, identityID, fullName string) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	Count(ctx context.Context) (int, error)
}

type accountUC struct {
	accounts repository.AccountRepository
	ledger   LedgerUseCase
	log      *zerolog.Logger
}

func NewAccountUseCase(accounts repository.AccountRepository, ledger LedgerUseCase, logger *zerolog.Logger) *accountUC {
	return &accountUC{accounts: accounts, ledger: ledger, log: logger}
}

// ResolveAccount fetches the caller's account, provisioning it on first
// sight of a new identity.
func (u *accountUC) ResolveAccount(ctx context.Context, identityID, fullName string) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.ResolveAccount")()

	if identityID == "" {
		return nil, domain.ErrUnauthenticated
	}
	acc, err := u.accounts.FindByID(ctx, repository.NoTX, identityID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	acc, err = u.ledger.OpenAccount(ctx, identityID, fullName)
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("account_id", acc.ID).Msg("account provisioned with welcome grant")
	return acc, nil
}

func (u *accountUC) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	acc, err := u.accounts.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (u *accountUC) Count(ctx context.Context) (int, error) {
	return u.accounts.CountAccounts(ctx, repository.NoTX)
}

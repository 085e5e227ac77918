package model

import (
	"strings"
	"time"

	"sodai-platform/internal/domain"
)

// WelcomeCredits is granted once, when an account is first provisioned.
const WelcomeCredits = 10

// WelcomeDescription is the transaction description of the welcome grant.
const WelcomeDescription = "Hoş geldin bonusu - 10 ücretsiz kredi!"

// Account is the per-user balance record. The credits column is a cached
// projection; the transaction log is the source of truth.
type Account struct {
	ID        string // identity key from the auth provider (UUID)
	FullName  string
	Credits   int64 // never negative
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewAccount(id, fullName string) (*Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Account{
		ID:        id,
		FullName:  strings.TrimSpace(fullName),
		Credits:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (a *Account) IsZero() bool { return a == nil || a.ID == "" }

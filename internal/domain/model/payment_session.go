package model

import (
	"time"

	"sodai-platform/internal/domain"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"   // checkout form issued, awaiting callback
	SessionCompleted SessionStatus = "completed" // gateway confirmed, credits granted
	SessionFailed    SessionStatus = "failed"    // gateway reported failure
)

// PaymentSession tracks one hosted-checkout attempt. Sessions reach at most
// one terminal state and are never deleted; they double as the audit trail
// for every credit purchase.
type PaymentSession struct {
	ID             string
	AccountID      string
	PackageID      string
	ConversationID string
	Token          string // gateway checkout token, lookup key for callbacks
	Credits        int64
	BonusCredits   int64
	Amount         string // monetary amount as the gateway quotes it, e.g. "810.00"
	Status         SessionStatus
	PaymentID      string // gateway payment id, set on completion
	ErrorMessage   string // set on failure
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewPaymentSession(accountID string, pkg *CreditPackage, conversationID, token string) (*PaymentSession, error) {
	if accountID == "" || pkg == nil || token == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PaymentSession{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		PackageID:      pkg.ID,
		ConversationID: conversationID,
		Token:          token,
		Credits:        pkg.Credits,
		BonusCredits:   pkg.BonusCredits,
		Amount:         pkg.PriceTL,
		Status:         SessionPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// TotalCredits is what one completed session grants.
func (s *PaymentSession) TotalCredits() int64 { return s.Credits + s.BonusCredits }

func (s *PaymentSession) Terminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionFailed
}

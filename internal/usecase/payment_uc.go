package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
	"sodai-platform/internal/domain/ports/repository"
	"sodai-platform/internal/infra/logging"
	"sodai-platform/internal/infra/metrics"
	"sodai-platform/internal/infra/redis"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// SettleResult is the outcome of a settled (or replayed) checkout.
type SettleResult struct {
	Credits   int64
	PaymentID string
	Message   string
}

type PaymentUseCase interface {
	// Initiate opens a hosted checkout for a catalog package and persists
	// the pending session. Returns the session and the checkout form URL.
	Initiate(ctx context.Context, account *model.Account, email, clientIP, packageID, conversationID string) (*model.PaymentSession, string, error)

	// VerifyAndSettle converts a gateway callback token into at most one
	// ledger credit. Replays of a completed session return the stored
	// result without another gateway call.
	VerifyAndSettle(ctx context.Context, token string) (*SettleResult, error)
}

type paymentUC struct {
	sessions repository.PaymentSessionRepository
	ledger   LedgerUseCase
	gateway  adapter.CheckoutGateway
	locker   redis.Locker
	lockTTL  time.Duration
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	sessions repository.PaymentSessionRepository,
	ledger LedgerUseCase,
	gateway adapter.CheckoutGateway,
	locker redis.Locker,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		sessions: sessions,
		ledger:   ledger,
		gateway:  gateway,
		locker:   locker,
		lockTTL:  30 * time.Second,
		log:      logger,
	}
}

func (u *paymentUC) Initiate(ctx context.Context, account *model.Account, email, clientIP, packageID, conversationID string) (*model.PaymentSession, string, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Initiate")()

	if account.IsZero() {
		return nil, "", domain.ErrUnauthenticated
	}
	pkg := model.PackageByID(packageID)
	if pkg == nil {
		return nil, "", fmt.Errorf("%w: unknown package %q", domain.ErrInvalidArgument, packageID)
	}
	if conversationID == "" {
		conversationID = fmt.Sprintf("conv_%s_%d", account.ID, time.Now().UnixMilli())
	}

	req := adapter.CheckoutRequest{
		ConversationID: conversationID,
		Price:          pkg.PriceTL,
		BasketID:       fmt.Sprintf("basket_%s_%d", pkg.ID, time.Now().UnixMilli()),
		PackageID:      pkg.ID,
		PackageName:    pkg.Name,
		BuyerID:        account.ID,
		BuyerName:      account.FullName,
		BuyerEmail:     email,
		BuyerIP:        clientIP,
	}
	session, err := u.gateway.InitializeCheckout(ctx, req)
	if err != nil {
		return nil, "", err
	}

	s, err := model.NewPaymentSession(account.ID, pkg, conversationID, session.Token)
	if err != nil {
		return nil, "", err
	}
	if err := u.sessions.Save(ctx, repository.NoTX, s); err != nil {
		return nil, "", err
	}
	metrics.IncPayment("initiated")
	u.log.Info().
		Str("account_id", account.ID).
		Str("package_id", pkg.ID).
		Str("session_id", s.ID).
		Msg("checkout initiated")
	return s, session.CheckoutFormURL, nil
}

func (u *paymentUC) VerifyAndSettle(ctx context.Context, token string) (*SettleResult, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.VerifyAndSettle")()

	if token == "" {
		return nil, domain.ErrInvalidArgument
	}

	// Serialize settlement per token. The conditional status update and the
	// ledger idempotency key stay the hard guarantees; the lock only keeps
	// near-simultaneous callbacks from both reaching the gateway.
	if u.locker != nil {
		lockKey := "settle:" + token
		if lockTok, err := u.locker.TryLock(ctx, lockKey, u.lockTTL); err == nil {
			defer func() { _ = u.locker.Unlock(ctx, lockKey, lockTok) }()
		} else {
			u.log.Warn().Str("token", token).Msg("settle lock unavailable, relying on store guards")
		}
	}

	s, err := u.sessions.FindByToken(ctx, repository.NoTX, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	// Terminal short-circuit: stored outcome, no second gateway call.
	switch s.Status {
	case model.SessionCompleted:
		return &SettleResult{
			Credits:   s.TotalCredits(),
			PaymentID: s.PaymentID,
			Message:   "Ödeme başarılı, krediler hesabınıza eklendi",
		}, nil
	case model.SessionFailed:
		return nil, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, s.ErrorMessage)
	}

	result, err := u.gateway.RetrieveCheckout(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrGatewaySignature) {
			// Possible tampering; never retried automatically.
			u.log.Error().Err(err).Str("session_id", s.ID).Msg("gateway rejected request signature")
			return nil, err
		}
		return nil, err
	}

	if result.Success && result.PaymentStatus == "SUCCESS" {
		return u.settleSuccess(ctx, s, result.PaymentID)
	}

	msg := result.ErrorMessage
	if msg == "" {
		msg = "Payment failed"
	}
	if _, err := u.sessions.MarkFailed(ctx, repository.NoTX, s.Token, msg); err != nil {
		return nil, err
	}
	metrics.IncPayment("failed")
	u.log.Info().Str("session_id", s.ID).Str("error", msg).Msg("checkout failed")
	return nil, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, msg)
}

// settleSuccess credits first, then flips the session. A crash in between
// leaves a pending session whose retry finds the idempotency key and
// converges: the credit replays as a no-op and the session completes.
func (u *paymentUC) settleSuccess(ctx context.Context, s *model.PaymentSession, paymentID string) (*SettleResult, error) {
	desc := fmt.Sprintf("%s paketi satın alındı", s.PackageID)
	if _, err := u.ledger.Credit(ctx, s.AccountID, s.TotalCredits(), model.TransactionPurchase, desc, paymentID); err != nil {
		return nil, err
	}

	applied, err := u.sessions.MarkCompleted(ctx, repository.NoTX, s.Token, paymentID)
	if err != nil {
		return nil, err
	}
	if !applied {
		u.log.Debug().Str("session_id", s.ID).Msg("session already terminal on completion")
	} else {
		metrics.IncPayment("succeeded")
		metrics.AddCreditsGranted(s.TotalCredits())
	}

	u.log.Info().
		Str("account_id", s.AccountID).
		Str("session_id", s.ID).
		Str("payment_id", paymentID).
		Int64("credits", s.TotalCredits()).
		Msg("checkout settled")
	return &SettleResult{
		Credits:   s.TotalCredits(),
		PaymentID: paymentID,
		Message:   "Ödeme başarılı, krediler hesabınıza eklendi",
	}, nil
}

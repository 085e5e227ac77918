package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
	"sodai-platform/internal/infra/logging"
	"sodai-platform/internal/infra/metrics"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// One credit per generation, flat.
const (
	copyCost  = 1
	videoCost = 1

	copyReason  = "İçerik üretimi için kredi kullanımı"
	videoReason = "Video üretimi için kredi kullanımı"
)

// GenerationUseCase runs the credit-consuming generation actions. Auth and
// balance are checked before the expensive provider call; a credit spent on
// a generation the caller abandons stays spent.
type GenerationUseCase interface {
	GenerateCopy(ctx context.Context, account *model.Account, req model.CopyRequest) (string, error)
	GenerateVideo(ctx context.Context, account *model.Account, req model.VideoRequest) (model.VideoResult, error)
}

type generationUC struct {
	ledger     LedgerUseCase
	copywriter adapter.Copywriter
	video      adapter.VideoGenerator
	log        *zerolog.Logger
}

func NewGenerationUseCase(ledger LedgerUseCase, copywriter adapter.Copywriter, video adapter.VideoGenerator, logger *zerolog.Logger) *generationUC {
	return &generationUC{ledger: ledger, copywriter: copywriter, video: video, log: logger}
}

func (u *generationUC) GenerateCopy(ctx context.Context, account *model.Account, req model.CopyRequest) (string, error) {
	defer logging.TraceDuration(u.log, "GenerationUC.GenerateCopy")()

	if err := u.precheck(ctx, account, copyCost); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	if _, err := u.ledger.Deduct(ctx, account.ID, copyCost, copyReason); err != nil {
		return "", err
	}

	start := time.Now()
	text, usage, err := u.copywriter.GenerateCopy(ctx, req)
	metrics.ObserveGeneration("copy", u.copywriter.Name(), err == nil, time.Since(start))
	if err != nil {
		u.log.Error().Err(err).Str("account_id", account.ID).Msg("copy generation failed after deduct")
		return "", err
	}
	metrics.AddCopyTokens(u.copywriter.Name(), usage.PromptTokens, usage.CompletionTokens)
	return text, nil
}

func (u *generationUC) GenerateVideo(ctx context.Context, account *model.Account, req model.VideoRequest) (model.VideoResult, error) {
	defer logging.TraceDuration(u.log, "GenerationUC.GenerateVideo")()

	if err := u.precheck(ctx, account, videoCost); err != nil {
		return model.VideoResult{}, err
	}
	if err := req.Validate(); err != nil {
		return model.VideoResult{}, err
	}
	if _, err := u.ledger.Deduct(ctx, account.ID, videoCost, videoReason); err != nil {
		return model.VideoResult{}, err
	}

	start := time.Now()
	result, err := u.video.GenerateVideo(ctx, req)
	metrics.ObserveGeneration("video", u.video.Name(), err == nil, time.Since(start))
	if err != nil {
		u.log.Error().Err(err).Str("account_id", account.ID).Msg("video generation failed after deduct")
		return model.VideoResult{}, err
	}
	return result, nil
}

// precheck rejects unauthenticated or underfunded calls before anything
// expensive runs. The deduct itself stays the atomic gate; this read only
// spares a doomed provider call.
func (u *generationUC) precheck(ctx context.Context, account *model.Account, cost int64) error {
	if account.IsZero() {
		return domain.ErrUnauthenticated
	}
	balance, err := u.ledger.Balance(ctx, account.ID)
	if err != nil {
		return err
	}
	if balance < cost {
		return domain.ErrInsufficientCredits
	}
	return nil
}

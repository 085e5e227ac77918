package adapter

import (
	"context"

	"sodai-platform/internal/domain/model"
)

// CopyUsage reports token accounting for one copy generation.
type CopyUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// Copywriter produces Turkish marketing copy for a product brief.
type Copywriter interface {
	Name() string
	GenerateCopy(ctx context.Context, req model.CopyRequest) (string, CopyUsage, error)
}

// VideoGenerator renders short product clips from still images.
type VideoGenerator interface {
	Name() string
	GenerateVideo(ctx context.Context, req model.VideoRequest) (model.VideoResult, error)
}

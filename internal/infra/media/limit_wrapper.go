package media

import (
	"context"

	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
)

// Compile-time checks
var _ adapter.Copywriter = (*limitedCopywriter)(nil)
var _ adapter.VideoGenerator = (*limitedVideoGenerator)(nil)

type limitedCopywriter struct {
	inner adapter.Copywriter
	sem   chan struct{}
}

// NewLimitedCopywriter caps concurrent provider calls.
func NewLimitedCopywriter(inner adapter.Copywriter, maxConcurrent int) adapter.Copywriter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedCopywriter{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedCopywriter) Name() string { return l.inner.Name() }

func (l *limitedCopywriter) GenerateCopy(ctx context.Context, req model.CopyRequest) (string, adapter.CopyUsage, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.GenerateCopy(ctx, req)
}

type limitedVideoGenerator struct {
	inner adapter.VideoGenerator
	sem   chan struct{}
}

// NewLimitedVideoGenerator caps concurrent render jobs.
func NewLimitedVideoGenerator(inner adapter.VideoGenerator, maxConcurrent int) adapter.VideoGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedVideoGenerator{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedVideoGenerator) Name() string { return l.inner.Name() }

func (l *limitedVideoGenerator) GenerateVideo(ctx context.Context, req model.VideoRequest) (model.VideoResult, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.GenerateVideo(ctx, req)
}

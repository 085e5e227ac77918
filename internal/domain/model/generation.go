package model

import (
	"strings"

	"sodai-platform/internal/domain"
)

// CopyRequest describes one marketing-copy generation.
type CopyRequest struct {
	Niche       string // product niche, e.g. "ev tekstili"
	Platform    string // instagram | tiktok | trendyol | email | blog | youtube
	Style       string // minimal | energetic | professional | friendly | luxury | funny
	AgeGroup    string // 18-25 | 26-35 | 36-45 | 46-55 | 55+
	Gender      string // Kadın | Erkek | Karma
	IncomeLevel string // Ekonomik | Orta | Premium | Lüks
}

func (r CopyRequest) Validate() error {
	if strings.TrimSpace(r.Niche) == "" || strings.TrimSpace(r.Platform) == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

// VideoRequest describes one image-to-video generation.
type VideoRequest struct {
	Prompt    string
	ImageURLs []string // one for single-image, several for the combine flow
}

func (r VideoRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" || len(r.ImageURLs) == 0 {
		return domain.ErrInvalidArgument
	}
	for _, u := range r.ImageURLs {
		if strings.TrimSpace(u) == "" {
			return domain.ErrInvalidArgument
		}
	}
	return nil
}

// VideoResult carries the hosted URL of a finished clip.
type VideoResult struct {
	VideoURL string
}

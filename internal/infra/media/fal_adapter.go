package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.VideoGenerator = (*FalVideoGenerator)(nil)

const (
	falQueueBase    = "https://queue.fal.run"
	videoModel      = "fal-ai/minimax/hailuo-02/standard/image-to-video"
	compositeModel  = "fal-ai/nano-banana/edit"
	falPollInterval = 3 * time.Second
)

// FalVideoGenerator renders clips through fal.ai's queue API. A single
// source image goes straight to the image-to-video model; several images
// are first composited by the edit model.
type FalVideoGenerator struct {
	apiKey    string
	base      string
	pollEvery time.Duration
	client    *http.Client
}

func NewFalVideoGenerator(apiKey string) (*FalVideoGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("fal api key empty")
	}
	return &FalVideoGenerator{
		apiKey:    foldASCII(strings.TrimSpace(apiKey)),
		base:      falQueueBase,
		pollEvery: falPollInterval,
		client:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (f *FalVideoGenerator) Name() string { return "fal" }

func (f *FalVideoGenerator) GenerateVideo(ctx context.Context, req model.VideoRequest) (model.VideoResult, error) {
	// The render endpoint only accepts ISO-8859-1 safe text
	prompt := foldASCII(req.Prompt)

	if len(req.ImageURLs) > 1 {
		return f.generateComposite(ctx, prompt, req.ImageURLs)
	}

	input := map[string]interface{}{
		"prompt":           prompt,
		"image_url":        req.ImageURLs[0],
		"duration":         "6",
		"prompt_optimizer": true,
		"resolution":       "768P",
	}
	raw, err := f.run(ctx, videoModel, input)
	if err != nil {
		return model.VideoResult{}, err
	}

	var out struct {
		Video struct {
			URL string `json:"url"`
		} `json:"video"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.VideoResult{}, fmt.Errorf("decode video result: %w", err)
	}
	if out.Video.URL == "" {
		return model.VideoResult{}, errors.New("fal result missing video url")
	}
	return model.VideoResult{VideoURL: out.Video.URL}, nil
}

func (f *FalVideoGenerator) generateComposite(ctx context.Context, prompt string, imageURLs []string) (model.VideoResult, error) {
	input := map[string]interface{}{
		"prompt":        prompt,
		"image_urls":    imageURLs,
		"num_images":    1,
		"output_format": "jpeg",
	}
	raw, err := f.run(ctx, compositeModel, input)
	if err != nil {
		return model.VideoResult{}, err
	}

	var out struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.VideoResult{}, fmt.Errorf("decode composite result: %w", err)
	}
	if len(out.Images) == 0 || out.Images[0].URL == "" {
		return model.VideoResult{}, errors.New("fal result missing composite image")
	}
	return model.VideoResult{VideoURL: out.Images[0].URL}, nil
}

type queueTicket struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// run submits a queue job and blocks until it completes or ctx ends.
func (f *FalVideoGenerator) run(ctx context.Context, modelPath string, input map[string]interface{}) (json.RawMessage, error) {
	ticket, err := f.submit(ctx, modelPath, input)
	if err != nil {
		return nil, err
	}

	tick := time.NewTicker(f.pollEvery)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tick.C:
		}

		status, err := f.getJSON(ctx, ticket.StatusURL)
		if err != nil {
			return nil, err
		}
		var st struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(status, &st); err != nil {
			return nil, fmt.Errorf("decode queue status: %w", err)
		}
		switch st.Status {
		case "COMPLETED":
			return f.getJSON(ctx, ticket.ResponseURL)
		case "IN_QUEUE", "IN_PROGRESS":
			continue
		default:
			msg := st.Error
			if msg == "" {
				msg = st.Status
			}
			return nil, fmt.Errorf("fal queue failed: %s", msg)
		}
	}
}

func (f *FalVideoGenerator) submit(ctx context.Context, modelPath string, input map[string]interface{}) (queueTicket, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return queueTicket{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.base+"/"+modelPath, bytes.NewReader(b))
	if err != nil {
		return queueTicket{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return queueTicket{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return queueTicket{}, fmt.Errorf("fal auth failed: http %d", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return queueTicket{}, fmt.Errorf("fal submit http %d: %s", resp.StatusCode, string(body))
	}

	var ticket queueTicket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return queueTicket{}, fmt.Errorf("decode queue ticket: %w", err)
	}
	if ticket.StatusURL == "" || ticket.ResponseURL == "" {
		return queueTicket{}, errors.New("fal ticket missing queue urls")
	}
	return ticket, nil
}

func (f *FalVideoGenerator) getJSON(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fal http %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

var asciiFolds = strings.NewReplacer(
	"ç", "c", "Ç", "c",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "İ", "i",
	"ö", "o", "Ö", "o",
	"ş", "s", "Ş", "s",
	"ü", "u", "Ü", "u",
)

// foldASCII maps Turkish letters to ASCII and strips everything else
// outside the 7-bit range.
func foldASCII(s string) string {
	folded := asciiFolds.Replace(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Copywriter = (*OpenAICopywriter)(nil)

// OpenAICopywriter generates marketing copy through the Chat Completions API.
type OpenAICopywriter struct {
	apiKey string
	base   string // e.g., https://api.openai.com/v1
	model  string
	client *http.Client
}

func NewOpenAICopywriter(apiKey, model string) (*OpenAICopywriter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICopywriter{
		apiKey: apiKey,
		base:   "https://api.openai.com/v1",
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (o *OpenAICopywriter) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAICopywriter) GenerateCopy(ctx context.Context, req model.CopyRequest) (string, adapter.CopyUsage, error) {
	prompt := buildCopyPrompt(req)

	reqBody := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		MaxTokens   int           `json:"max_tokens"`
		Temperature float64       `json:"temperature"`
	}{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	}

	b, _ := json.Marshal(reqBody)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", adapter.CopyUsage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", adapter.CopyUsage{}, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", adapter.CopyUsage{}, err
	}

	usage := adapter.CopyUsage{
		PromptTokens:     payload.Usage.PromptTokens,
		CompletionTokens: payload.Usage.CompletionTokens,
	}
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			if usage.PromptTokens == 0 {
				usage.PromptTokens = countTokens(o.model, prompt)
				usage.CompletionTokens = countTokens(o.model, c.Message.Content)
			}
			return c.Message.Content, usage, nil
		}
	}
	return "", adapter.CopyUsage{}, errors.New("no choice content")
}

// countTokens estimates token usage locally when the API omits it.
func countTokens(model, text string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return len(text) / 4
		}
	}
	return len(enc.Encode(text, nil, nil))
}

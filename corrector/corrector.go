// Package corrector cleans up a transcript with an OpenAI chat model before
// it is handed to the clipboard.
package corrector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	DefaultModel = "gpt-4o-mini"

	systemPrompt = "You are a writing assistant. Improve spelling, grammar, and punctuation. Do not change meaning. Return only the corrected text."
)

// Corrector rewrites transcripts through the chat completions API.
type Corrector struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Corrector.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a Corrector. An empty model selects DefaultModel.
func New(apiKey, model string, opts ...Option) (*Corrector, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("corrector: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Corrector{client: oai.NewClient(reqOpts...), model: model}, nil
}

func (c *Corrector) Model() string { return c.model }

// Correct returns the corrected text. Blank input is returned as is without
// a request, and an empty completion falls back to the input.
func (c *Corrector) Correct(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("corrector: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return text, nil
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return text, nil
	}
	return out, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize shortens abstracts with a generative model.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

const (
	defaultModel      = "claude-3-5-haiku-latest"
	defaultMaxTokens  = 512
	defaultMaxRetries = 3
)

// ErrEmptySummary reports a response with no text content.
var ErrEmptySummary = errors.New("model returned an empty summary")

// Summarizer turns raw abstract text into a shorter version. It either
// returns the complete text or an error; there are no partial results.
type Summarizer interface {
	Summarize(ctx context.Context, abstract string) (string, error)
}

const systemPrompt = "You are a helpful assistant that writes short digests of research abstracts."

var promptTmpl = template.Must(template.New("summary").Parse(`Please summarize the following abstract in a short and concise way. Answer in the language of the abstract and reply with the summary only.

Abstract:
{{.Abstract}}
`))

func renderPrompt(abstract string) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, struct{ Abstract string }{abstract}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// AnthropicSummarizer calls the Claude Messages API.
type AnthropicSummarizer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic builds a summarizer from cfg. hc may be nil.
func NewAnthropic(cfg types.SummarizerConfig, hc *http.Client) *AnthropicSummarizer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(retries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	opts = append(opts, option.WithHTTPClient(hc))

	return &AnthropicSummarizer{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Summarize implements Summarizer.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, abstract string) (string, error) {
	prompt, err := renderPrompt(abstract)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages API: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, strings.TrimSpace(block.Text))
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptySummary
	}
	return strings.Join(parts, "\n"), nil
}

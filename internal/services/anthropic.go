package services

import (
	"context"
	"errors"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicSystemPrompt = "You are a technical recruiter screening candidates. Respond with strict JSON only."

// AnthropicMessager is the part of the Anthropic client the screener uses.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type anthropicClient struct {
	messages AnthropicMessager
	model    string
	timeout  time.Duration
}

func NewAnthropicClient(apiKey, model string, timeout time.Duration) (Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newAnthropicGenerator(&c.Messages, model, timeout), nil
}

func newAnthropicGenerator(messages AnthropicMessager, model string, timeout time.Duration) Generator {
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	return &anthropicClient{messages: messages, model: model, timeout: timeout}
}

func (a *anthropicClient) Model() string {
	return a.model
}

// Generate implements Generator.
func (a *anthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.messages.New(callCtx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: anthropicSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &EndpointError{Kind: KindEndpointError, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", classifyTransportError(ctx, err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return stripCodeFences(sb.String()), nil
}

// stripCodeFences removes a surrounding ```json fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultModelTimeout bounds a single generation call.
const DefaultModelTimeout = 120 * time.Second

// Generator sends one prompt to a generation endpoint and returns its raw
// text. Implementations make exactly one call per invocation and never retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Model identifies the model, used to key cached results.
	Model() string
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type ollamaClient struct {
	endpoint   string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewOllamaClient returns a Generator for a local /api/generate endpoint. The
// returned text is the full response body, envelope included.
func NewOllamaClient(endpoint, model string, timeout time.Duration) Generator {
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	return &ollamaClient{
		endpoint:   endpoint,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *ollamaClient) Model() string {
	return c.model
}

// Generate implements Generator.
func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &EndpointError{
			Kind:       KindEndpointError,
			StatusCode: resp.StatusCode,
			Err:        errors.New(truncateRunes(string(bytes.TrimSpace(raw)), maxExcerptLen)),
		}
	}

	return string(raw), nil
}

// classifyTransportError maps a failed round trip to the endpoint taxonomy.
// Cancellation of the caller's context is passed through unchanged so it is
// never mistaken for an endpoint fault.
func classifyTransportError(parent context.Context, err error) error {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("generation cancelled: %w", parent.Err())
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &EndpointError{Kind: KindEndpointTimeout, Err: err}
	}
	return &EndpointError{Kind: KindEndpointUnavailable, Err: err}
}

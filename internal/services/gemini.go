package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const transcribeInstruction = "Transcribe this interview recording verbatim. Return only the transcript text."

// GeminiService covers the Gemini calls used by the screener: JSON
// generation, embeddings for guideline retrieval, and audio transcription.
type GeminiService interface {
	Generator
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	timeout    time.Duration
	log        *zap.Logger
}

// NewGeminiService returns the Gemini client. timeout bounds each generate
// and transcribe call.
func NewGeminiService(ctx context.Context, apiKey, model, embedModel string, timeout time.Duration, log *zap.Logger) (GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}
	if embedModel == "" {
		embedModel = "text-embedding-004"
	}
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}

	return &geminiService{
		client:     client,
		modelName:  model,
		embedModel: embedModel,
		timeout:    timeout,
		log:        log,
	}, nil
}

func (g *geminiService) Model() string {
	return g.modelName
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	text = truncateRunes(text, 40000)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// Generate implements Generator. The model is asked for a JSON response, so
// the returned text carries no envelope.
func (g *geminiService) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(callCtx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		g.log.Warn("❌ Gemini API error", zap.Error(err))
		return "", classifyGeminiError(ctx, err)
	}

	if resp == nil {
		return "", &EndpointError{Kind: KindEndpointError, Err: errors.New("nil response")}
	}

	return resp.Text(), nil
}

// Transcribe implements GeminiService. An empty transcript is reported as
// ErrEmptyTranscript.
func (g *geminiService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcribeInstruction),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(callCtx, g.modelName, contents, nil)
	if err != nil {
		return "", classifyGeminiError(ctx, err)
	}
	if resp == nil {
		return "", ErrEmptyTranscript
	}

	transcript := strings.TrimSpace(resp.Text())
	if transcript == "" {
		return "", ErrEmptyTranscript
	}

	g.log.Debug("🎙️ Transcription received", zap.Int("chars", len(transcript)))
	return transcript, nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &EndpointError{Kind: KindEndpointError, StatusCode: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &EndpointError{Kind: KindEndpointError, StatusCode: apiErrPtr.Code, Err: err}
	}
	return classifyTransportError(ctx, err)
}

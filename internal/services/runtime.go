package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/config"
)

// Runtime owns the long-lived clients behind a Screener. Close releases them
// and must be called once the worker pool or batch has stopped.
type Runtime struct {
	Screener Screener
	Reports  ReportRenderer
	Metrics  *Metrics

	closers []func() error
	log     *zap.Logger
}

func NewRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{Metrics: NewMetrics(), log: log}

	var gemini GeminiService
	if cfg.Gemini.APIKey != "" {
		g, err := NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel, cfg.Model.Timeout, log)
		if err != nil {
			return nil, err
		}
		gemini = g
		log.Info("✅ Gemini initialized", zap.String("model", cfg.Gemini.Model))
	}

	generator, err := newGenerator(cfg, gemini)
	if err != nil {
		return nil, err
	}
	log.Info("✅ Generation backend selected",
		zap.String("provider", cfg.Model.Provider),
		zap.String("model", generator.Model()),
	)

	deps := ScreenerDeps{
		Generator: generator,
		Prompts:   NewPromptBuilder(cfg.Model.ExcerptBudget),
		Metrics:   rt.Metrics,
		Retry: RetryPolicy{
			MaxRetries:   cfg.Worker.RetryMaxAttempts,
			InitialDelay: cfg.Worker.RetryInitialDelay,
		},
		Log: log,
	}
	if gemini != nil {
		deps.Transcriber = gemini
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("⚠️ Redis unreachable, result cache disabled", zap.Error(err))
			_ = client.Close()
		} else {
			deps.Cache = NewRedisResultCache(client, cfg.Redis.TTL)
			rt.closers = append(rt.closers, client.Close)
			log.Info("✅ Result cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if cfg.Qdrant.Enabled {
		if gemini == nil {
			rt.Close()
			return nil, fmt.Errorf("guideline retrieval requires GEMINI_API_KEY for embeddings")
		}
		store, err := NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := store.InitCollection(ctx); err != nil {
			_ = store.Close()
			rt.Close()
			return nil, err
		}
		deps.Guidelines = NewGuidelineRetriever(store, gemini, 3)
		rt.closers = append(rt.closers, store.Close)
		log.Info("✅ Role guideline retrieval enabled", zap.String("collection", cfg.Qdrant.Collection))
	}

	screener, err := NewScreener(deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Screener = screener

	if cfg.Report.Enabled {
		rt.Reports = NewReportRenderer(cfg.Storage.ReportPath, cfg.Report.ChromePath)
	}

	return rt, nil
}

func newGenerator(cfg *config.Config, gemini GeminiService) (Generator, error) {
	switch cfg.Model.Provider {
	case "", "ollama":
		return NewOllamaClient(cfg.Model.Endpoint, cfg.Model.Name, cfg.Model.Timeout), nil
	case "gemini":
		if gemini == nil {
			return nil, fmt.Errorf("MODEL_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return gemini, nil
	case "anthropic":
		return NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Model.Timeout)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// Close releases every client in reverse order of creation.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("⚠️ Failed to close client", zap.Error(err))
		}
	}
	rt.closers = nil
}

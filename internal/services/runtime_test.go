package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/config"
)

func TestNewGenerator(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Provider: "ollama", Endpoint: "http://localhost:11434/api/generate", Name: "granite3.3"}}
	gen, err := newGenerator(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "granite3.3", gen.Model())

	cfg.Model.Provider = "gemini"
	_, err = newGenerator(cfg, nil)
	assert.Error(t, err)

	cfg.Model.Provider = "anthropic"
	cfg.Anthropic = config.AnthropicConfig{APIKey: "sk-test", Model: "claude-test"}
	gen, err = newGenerator(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", gen.Model())

	cfg.Model.Provider = "openai"
	_, err = newGenerator(cfg, nil)
	assert.Error(t, err)
}

func TestRuntimeCloseOrder(t *testing.T) {
	var order []string
	rt := &Runtime{log: zap.NewNop()}
	rt.closers = []func() error{
		func() error { order = append(order, "qdrant"); return nil },
		func() error { order = append(order, "redis"); return errors.New("already closed") },
	}

	rt.Close()
	rt.Close()
	assert.Equal(t, []string{"redis", "qdrant"}, order)
}

func TestNewRuntime_Minimal(t *testing.T) {
	cfg := &config.Config{
		Model:  config.ModelConfig{Provider: "ollama", Endpoint: "http://127.0.0.1:1/api/generate", Name: "granite3.3"},
		Worker: config.WorkerConfig{RetryMaxAttempts: 1},
	}
	rt, err := NewRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.Screener)
	assert.NotNil(t, rt.Metrics)
	assert.Nil(t, rt.Reports)
}

func TestNewRuntime_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Model: config.ModelConfig{Provider: "ollama", Endpoint: "http://127.0.0.1:1/api/generate", Name: "granite3.3"},
		Redis: config.RedisConfig{Addr: mr.Addr(), TTL: time.Hour},
	}
	rt, err := NewRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, rt.closers, 1)
	rt.Close()
	assert.Empty(t, rt.closers)
}

func TestNewRuntime_GuidelinesNeedEmbeddings(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Model:  config.ModelConfig{Provider: "ollama", Name: "granite3.3"},
		Redis:  config.RedisConfig{Addr: mr.Addr()},
		Qdrant: config.QdrantConfig{Enabled: true},
	}
	_, err := NewRuntime(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

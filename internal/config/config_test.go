package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MODEL_TIMEOUT", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("MODEL_PROVIDER", "")

	cfg := Load()

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "http://localhost:11434/api/generate", cfg.Model.Endpoint)
	assert.Equal(t, "granite3.3", cfg.Model.Name)
	assert.Equal(t, 120*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 3000, cfg.Model.ExcerptBudget)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.Equal(t, 2, cfg.Worker.RetryMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Worker.RetryInitialDelay)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "Gemini")
	t.Setenv("MODEL_TIMEOUT", "30s")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("QDRANT_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.True(t, cfg.Qdrant.Enabled)
}

func TestGetEnvAsDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, 5*time.Second, getEnvAsDuration("SOME_DURATION", "5s"))
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "cv",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=cv sslmode=disable", cfg.GetDatabaseDSN())
}

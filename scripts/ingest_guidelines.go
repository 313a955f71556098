package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"kermittech/cv-screener/internal/config"
	"kermittech/cv-screener/internal/logger"
	"kermittech/cv-screener/internal/services"
)

// guidelineFiles maps each job category to its guideline document, relative
// to the guidelines directory.
var guidelineFiles = map[string]string{
	"Data Engineer":   "data_engineer.md",
	"Data Analyst":    "data_analyst.md",
	"AI Engineer":     "ai_engineer.md",
	"UI/UX Developer": "ui_ux_developer.md",
}

func main() {
	dir := flag.String("dir", "./guidelines", "directory holding role guideline documents")
	chunkSize := flag.Int("chunk-size", 1000, "maximum characters per chunk")
	overlap := flag.Int("overlap", 200, "characters shared between consecutive chunks")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	log.Info("🚀 Starting guideline ingestion", zap.String("dir", *dir))

	ctx := context.Background()

	gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel, cfg.Model.Timeout, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize Gemini", zap.Error(err))
	}

	store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitCollection(ctx); err != nil {
		log.Fatal("❌ Failed to initialize collection", zap.Error(err))
	}

	extractor := services.NewTextExtractor()
	chunker := services.NewTextChunker()

	successCount := 0
	failCount := 0

	for _, category := range services.JobCategories {
		name, ok := guidelineFiles[category]
		if !ok {
			continue
		}
		path := filepath.Join(*dir, name)
		catLog := log.With(zap.String("job_category", category), zap.String("path", path))

		text, err := readGuideline(extractor, path)
		if err != nil {
			catLog.Warn("⚠️ Skipping guideline", zap.Error(err))
			failCount++
			continue
		}

		if err := store.DeleteSource(ctx, name); err != nil {
			catLog.Warn("⚠️ Failed to clear previous chunks", zap.Error(err))
		}

		chunks := chunker.ChunkText(text, *chunkSize, *overlap)
		catLog.Info("✂️ Chunked guideline", zap.Int("chunks", len(chunks)))

		stored := 0
		for i, chunk := range chunks {
			embedding, err := gemini.GenerateEmbedding(ctx, chunk)
			if err != nil {
				catLog.Warn("❌ Failed to embed chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}

			err = store.UpsertGuideline(ctx, services.GuidelineChunk{
				Source:      name,
				JobCategory: category,
				Index:       i,
				Text:        chunk,
			}, embedding)
			if err != nil {
				catLog.Warn("❌ Failed to store chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}
			stored++
		}

		if stored == 0 {
			failCount++
			continue
		}
		catLog.Info("✅ Guideline ingested", zap.Int("stored", stored))
		successCount++
	}

	log.Info("📊 Ingestion summary", zap.Int("successful", successCount), zap.Int("failed", failCount))
	if failCount > 0 {
		os.Exit(1)
	}
}

func readGuideline(extractor services.TextExtractor, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return extractor.ExtractText(path)
	}
}

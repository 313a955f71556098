package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// QdrantService stores role guideline chunks, filtered by job category.
type QdrantService interface {
	InitCollection(ctx context.Context) error
	UpsertGuideline(ctx context.Context, chunk GuidelineChunk, embedding []float32) error
	SearchGuidelines(ctx context.Context, queryEmbedding []float32, category string, limit int) ([]SearchResult, error)
	DeleteSource(ctx context.Context, source string) error
	Close() error
}

// GuidelineChunk is one piece of a role guideline document.
type GuidelineChunk struct {
	Source      string
	JobCategory string
	Index       int
	Text        string
}

type SearchResult struct {
	ID          string
	Score       float32
	Text        string
	JobCategory string
	Metadata    map[string]interface{}
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	log            *zap.Logger
}

func NewQdrantService(urlStr, apiKey, collectionName string, log *zap.Logger) (QdrantService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004
		log:            log,
	}, nil
}

// InitCollection implements QdrantService.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.log.Info("✅ Collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.log.Info("✅ Qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// UpsertGuideline implements QdrantService.
func (q *qdrantService) UpsertGuideline(ctx context.Context, chunk GuidelineChunk, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(uuid.NewString()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"source":       chunk.Source,
			"job_category": chunk.JobCategory,
			"chunk_index":  chunk.Index,
			"text":         chunk.Text,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchGuidelines implements QdrantService.
func (q *qdrantService) SearchGuidelines(ctx context.Context, queryEmbedding []float32, category string, limit int) ([]SearchResult, error) {
	var filter *qdrant.Filter
	if category != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("job_category", category),
			},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		result := SearchResult{
			Score:    point.Score,
			Metadata: make(map[string]interface{}, len(payload)),
		}

		result.ID = payloadString(payload, "source")
		result.Text = payloadString(payload, "text")
		result.JobCategory = payloadString(payload, "job_category")
		for key, value := range payload {
			result.Metadata[key] = value
		}

		results = append(results, result)
	}

	return results, nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
		return s.StringValue
	}
	return ""
}

// DeleteSource implements QdrantService.
func (q *qdrantService) DeleteSource(ctx context.Context, source string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source", source),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete guideline source: %w", err)
	}

	return nil
}

func (q *qdrantService) Close() error {
	return q.client.Close()
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type guidelineRetriever struct {
	store   QdrantService
	embed   Embedder
	prompts *PromptBuilder
	limit   int
}

// NewGuidelineRetriever returns the prompt's role guidelines source.
func NewGuidelineRetriever(store QdrantService, embed Embedder, limit int) GuidelineRetriever {
	if limit <= 0 {
		limit = 3
	}
	return &guidelineRetriever{
		store:   store,
		embed:   embed,
		prompts: NewPromptBuilder(DefaultExcerptBudget),
		limit:   limit,
	}
}

func (g *guidelineRetriever) Retrieve(ctx context.Context, category string) (string, error) {
	vector, err := g.embed.GenerateEmbedding(ctx, g.prompts.BuildGuidelineQuery(category))
	if err != nil {
		return "", err
	}
	results, err := g.store.SearchGuidelines(ctx, vector, category, g.limit)
	if err != nil {
		return "", err
	}
	return FormatGuidelines(results), nil
}

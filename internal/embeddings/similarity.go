package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/philippgille/chromem-go"
)

// SimilarityIndex ranks profiles against a query with an in-memory vector
// collection. A fresh collection is built per call; nothing is persisted.
type SimilarityIndex struct {
	provider EmbeddingProvider
	logger   *log.Logger
}

func NewSimilarityIndex(provider EmbeddingProvider, logger *log.Logger) *SimilarityIndex {
	return &SimilarityIndex{provider: provider, logger: logger}
}

// ProfileText is the text embedded for a profile
func ProfileText(p types.Profile, captions []string) string {
	var sb strings.Builder
	sb.WriteString(p.DisplayName)
	sb.WriteString(" (@")
	sb.WriteString(p.Identifier)
	sb.WriteString(")\n")
	sb.WriteString(p.Bio)
	for _, c := range captions {
		sb.WriteString("\n")
		sb.WriteString(c)
	}
	return sb.String()
}

// Similarities returns the cosine similarity, clamped to [0,1], between query
// and each document keyed by identifier
func (s *SimilarityIndex) Similarities(ctx context.Context, query string, docs map[string]string) (map[string]float64, error) {
	if len(docs) == 0 {
		return map[string]float64{}, nil
	}
	start := time.Now()

	embed := func(ctx context.Context, text string) ([]float32, error) {
		return s.provider.GenerateEmbedding(ctx, text)
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("profiles", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	documents := make([]chromem.Document, 0, len(docs))
	for id, text := range docs {
		documents = append(documents, chromem.Document{
			ID:       id,
			Metadata: map[string]string{"model_name": s.provider.GetEmbeddingModelName()},
			Content:  text,
		})
	}
	// one at a time to stay under provider rate limits
	if err := collection.AddDocuments(ctx, documents, 1); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	var results []chromem.Result
	if qe, ok := s.provider.(QueryEmbedder); ok {
		var embedding []float32
		if embedding, err = qe.GenerateQueryEmbedding(ctx, query); err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		results, err = collection.QueryEmbedding(ctx, embedding, collection.Count(), nil, nil)
	} else {
		results, err = collection.Query(ctx, query, collection.Count(), nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	out := make(map[string]float64, len(results))
	for _, r := range results {
		out[r.ID] = types.Clamp(float64(r.Similarity))
	}
	s.logger.Debug("Computed semantic similarities", "documents", len(documents), "model", s.provider.GetEmbeddingModelName(), "duration", time.Since(start))
	return out, nil
}

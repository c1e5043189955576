package embeddings

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbeddingProvider maps text onto a fixed vocabulary so similarity
// is predictable in tests
type keywordEmbeddingProvider struct{}

var vocabulary = []string{"security", "privacy", "cooking", "travel"}

func (keywordEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = strings.ToLower(text)
	vec := make([]float32, len(vocabulary)+1)
	for i, w := range vocabulary {
		if strings.Contains(text, w) {
			vec[i] = 1
		}
	}
	vec[len(vocabulary)] = 0.1
	return vec, nil
}

func (keywordEmbeddingProvider) GetEmbeddingModelName() string { return "keyword" }

func TestSimilaritiesRanksRelatedProfilesHigher(t *testing.T) {
	idx := NewSimilarityIndex(keywordEmbeddingProvider{}, log.New(io.Discard))

	sims, err := idx.Similarities(context.Background(), "privacy and security tips", map[string]string{
		"secsam":  "Security engineer sharing privacy advice",
		"chefcat": "Cooking and travel vlogs",
	})
	require.NoError(t, err)
	require.Len(t, sims, 2)
	assert.Greater(t, sims["secsam"], sims["chefcat"])
	for _, v := range sims {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

// queryAwareProvider embeds queries through its own path and records them
type queryAwareProvider struct {
	keywordEmbeddingProvider
	queries []string
}

func (p *queryAwareProvider) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	p.queries = append(p.queries, query)
	return p.GenerateEmbedding(ctx, query)
}

func TestSimilaritiesUsesQueryEmbedder(t *testing.T) {
	provider := &queryAwareProvider{}
	idx := NewSimilarityIndex(provider, log.New(io.Discard))

	sims, err := idx.Similarities(context.Background(), "travel creators", map[string]string{
		"nomadnia": "Travel vlogs from Accra",
		"secsam":   "Security engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"travel creators"}, provider.queries)
	assert.Greater(t, sims["nomadnia"], sims["secsam"])
}

func TestSimilaritiesEmpty(t *testing.T) {
	idx := NewSimilarityIndex(keywordEmbeddingProvider{}, log.New(io.Discard))
	sims, err := idx.Similarities(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, sims)
}

func TestProfileText(t *testing.T) {
	text := ProfileText(types.Profile{Identifier: "jane", DisplayName: "Jane", Bio: "Chef"}, []string{"pasta night"})
	assert.Equal(t, "Jane (@jane)\nChef\npasta night", text)
}

func TestProviderConfigValidation(t *testing.T) {
	_, err := NewOpenAIEmbeddingProvider(NewOpenAIConfig().WithLogger(log.New(io.Discard)))
	assert.Error(t, err)
	assert.Error(t, NewGeminiConfig().WithAPIKey("k").Validate())
}

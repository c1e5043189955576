// Package embeddings generates text embeddings and ranks creator profiles
// by semantic similarity to a query.
package embeddings

import "context"

// EmbeddingProvider generates embeddings from text
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GetEmbeddingModelName() string
}

// QueryEmbedder is implemented by providers that embed search queries
// differently from the profiles they are matched against
type QueryEmbedder interface {
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)
}

// maxInputRunes bounds the text sent for one embedding
const maxInputRunes = 2000

func truncate(text string) string {
	r := []rune(text)
	if len(r) <= maxInputRunes {
		return text
	}
	return string(r[:maxInputRunes])
}

package port

import (
	"context"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension, or 0 when it is only
	// known after the first call.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex persists (vector, chunk) pairs for one corpus and answers
// nearest-neighbour queries over them.
type VectorIndex interface {
	// Index embeds the chunks and stores them. Repeated calls append; there
	// is no deduplication.
	Index(ctx context.Context, chunks []domain.Chunk) (int, error)

	// Query returns at most k chunks ordered by ascending distance to the
	// embedding of text.
	Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of stored entries.
	Count() (int, error)

	Close() error
}

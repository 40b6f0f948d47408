package usecase

import (
	"context"
	"fmt"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// Retriever is the query-time wrapper around one corpus index.
type Retriever struct {
	index       port.VectorIndex
	k           int
	maxDistance float64
}

// NewRetriever creates a retriever returning the k nearest chunks. A
// positive maxDistance drops hits farther than it.
func NewRetriever(index port.VectorIndex, k int, maxDistance float64) *Retriever {
	if k < 1 {
		k = 4
	}
	return &Retriever{index: index, k: k, maxDistance: maxDistance}
}

// K returns the number of chunks requested per query.
func (r *Retriever) K() int {
	return r.k
}

// Retrieve returns at most k chunks ordered by ascending distance.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	results, err := r.index.Query(ctx, query, r.k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	if r.maxDistance > 0 {
		kept := results[:0]
		for _, res := range results {
			if res.Distance <= r.maxDistance {
				kept = append(kept, res)
			}
		}
		if dropped := len(results) - len(kept); dropped > 0 {
			logging.Debug("dropped %d chunks beyond distance %.2f", dropped, r.maxDistance)
		}
		results = kept
	}

	if logging.Enabled(logging.LevelDebug) {
		for i, res := range results {
			logging.Debug("  %d. %.4f %s", i+1, res.Distance, citationFor(res.Chunk))
		}
	}
	return results, nil
}

package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/store"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

var _ port.VectorIndex = (*MemoryIndex)(nil)

// MemoryIndex is a VectorIndex that lives only for the process. It ranks
// exactly like the bbolt store.
type MemoryIndex struct {
	mu       sync.RWMutex
	embedder port.Embedder
	entries  []store.Candidate
	seq      uint64
}

func NewMemoryIndex(embedder port.Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

func (s *MemoryIndex) Index(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingFailed, len(vectors), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		s.seq++
		s.entries = append(s.entries, store.Candidate{Seq: s.seq, Vector: vectors[i], Chunk: chunk})
	}
	return len(chunks), nil
}

func (s *MemoryIndex) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", domain.ErrEmbeddingFailed, len(vectors))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Rank(vectors[0], s.entries, k), nil
}

func (s *MemoryIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryIndex) Close() error {
	return nil
}

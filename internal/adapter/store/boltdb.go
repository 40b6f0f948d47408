package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// IndexFile is the bbolt file kept inside every corpus store directory.
const IndexFile = "index.db"

var (
	bucketMeta    = []byte("meta")
	bucketEntries = []byte("entries")
)

var _ port.VectorIndex = (*BoltIndex)(nil)

// BoltIndex is a persisted vector index for one corpus. Entries live in
// bbolt and are mirrored in memory for brute-force search.
type BoltIndex struct {
	db       *bbolt.DB
	dir      string
	embedder port.Embedder

	mu      sync.RWMutex
	header  *Header
	entries []Candidate
}

// storedEntry is the on-disk form of one (vector, chunk) pair.
type storedEntry struct {
	Seq     uint64          `json:"seq"`
	ChunkID string          `json:"chunk_id"`
	DocID   string          `json:"doc_id"`
	Ordinal int             `json:"ordinal"`
	Text    string          `json:"text"`
	Meta    domain.Metadata `json:"meta"`
	Vector  []float32       `json:"v"`
}

// Open opens an existing store for querying. A missing directory or index
// file yields domain.ErrStoreUnavailable; a store built with another
// embedding model yields domain.ErrEmbeddingMismatch.
func Open(dir string, embedder port.Embedder) (*BoltIndex, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, dir)
	}
	path := filepath.Join(dir, IndexFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, path)
	}
	return open(dir, embedder)
}

// Create opens the store for ingestion, creating the directory if needed.
// With wipe set, any previous index is removed first.
func Create(dir string, embedder port.Embedder, wipe bool) (*BoltIndex, error) {
	if wipe {
		if err := os.Remove(filepath.Join(dir, IndexFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to wipe store: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return open(dir, embedder)
}

func open(dir string, embedder port.Embedder) (*BoltIndex, error) {
	db, err := bbolt.Open(filepath.Join(dir, IndexFile), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketEntries} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltIndex{db: db, dir: dir, embedder: embedder}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	if s.header != nil {
		if err := s.header.Compatible(embedder.ModelName(), embedder.Dimension()); err != nil {
			db.Close()
			return nil, err
		}
	}

	logging.Debug("opened store %s (%d entries)", dir, len(s.entries))
	return s, nil
}

// load reads the header and every entry into memory, ordered by insertion.
func (s *BoltIndex) load() error {
	header, err := s.readHeader()
	if err != nil {
		return err
	}
	s.header = header

	var entries []Candidate
	err = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				logging.Warn("skipping corrupted entry %s: %v", k, err)
				return nil
			}
			entries = append(entries, Candidate{
				Seq:    stored.Seq,
				Vector: stored.Vector,
				Chunk: domain.Chunk{
					ID:       stored.ChunkID,
					DocID:    stored.DocID,
					Ordinal:  stored.Ordinal,
					Text:     stored.Text,
					Metadata: stored.Meta,
				},
			})
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	s.entries = entries
	return nil
}

// Index embeds the chunks and appends them. The first write stamps the
// store header with the embedder identity.
func (s *BoltIndex) Index(ctx context.Context, chunks []domain.Chunk) (int, error) {
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

	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: inconsistent vector sizes %d and %d", domain.ErrEmbeddingMismatch, dim, len(v))
		}
	}

	header := s.header
	if header == nil {
		header = NewHeader(s.embedder.ModelName(), dim)
	} else if err := header.Compatible(s.embedder.ModelName(), dim); err != nil {
		return 0, err
	}

	added := make([]Candidate, 0, len(chunks))
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if s.header == nil {
			if err := writeHeader(tx, header); err != nil {
				return err
			}
		}

		b := tx.Bucket(bucketEntries)
		for i, chunk := range chunks {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if chunk.ID == "" {
				chunk.ID = uuid.NewString()
			}
			stored := storedEntry{
				Seq:     seq,
				ChunkID: chunk.ID,
				DocID:   chunk.DocID,
				Ordinal: chunk.Ordinal,
				Text:    chunk.Text,
				Meta:    chunk.Metadata,
				Vector:  vectors[i],
			}
			data, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			// Entry keys are fresh ids so re-ingesting the same chunk appends.
			if err := b.Put([]byte(uuid.NewString()), data); err != nil {
				return err
			}
			added = append(added, Candidate{Seq: seq, Vector: vectors[i], Chunk: chunk})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write entries: %w", err)
	}

	s.header = header
	s.entries = append(s.entries, added...)
	return len(added), nil
}

// Query embeds text and returns the k nearest entries.
func (s *BoltIndex) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
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

	if s.header != nil {
		if err := s.header.Compatible(s.embedder.ModelName(), len(vectors[0])); err != nil {
			return nil, err
		}
	}
	return Rank(vectors[0], s.entries, k), nil
}

func (s *BoltIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Header returns the store header, or nil for a store never written to.
func (s *BoltIndex) Header() *Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.header == nil {
		return nil
	}
	h := *s.header
	return &h
}

// Dir returns the store directory.
func (s *BoltIndex) Dir() string {
	return s.dir
}

func (s *BoltIndex) Close() error {
	return s.db.Close()
}

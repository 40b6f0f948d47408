package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keyHeader = []byte("header")

// Header identifies how a store was built. It is written with the first
// batch of entries.
type Header struct {
	Version        int    `json:"version"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
	ConfigHash     string `json:"config_hash,omitempty"`
}

func NewHeader(model string, dimension int) *Header {
	return &Header{
		Version:        CurrentSchemaVersion,
		EmbeddingModel: model,
		Dimension:      dimension,
	}
}

// Compatible reports whether vectors from model with the given dimension can
// be mixed with this store. A zero dimension is not checked.
func (h *Header) Compatible(model string, dimension int) error {
	if h.Version > CurrentSchemaVersion {
		return fmt.Errorf("%w: store created by newer version (v%d > v%d)",
			domain.ErrEmbeddingMismatch, h.Version, CurrentSchemaVersion)
	}
	if h.EmbeddingModel != model {
		return fmt.Errorf("%w: store built with %q, configured %q",
			domain.ErrEmbeddingMismatch, h.EmbeddingModel, model)
	}
	if dimension != 0 && h.Dimension != dimension {
		return fmt.Errorf("%w: store dimension %d, embedder dimension %d",
			domain.ErrEmbeddingMismatch, h.Dimension, dimension)
	}
	return nil
}

func (s *BoltIndex) readHeader() (*Header, error) {
	var header *Header
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyHeader)
		if data == nil {
			return nil
		}
		var h Header
		if err := json.Unmarshal(data, &h); err != nil {
			return fmt.Errorf("corrupted store header: %w", err)
		}
		header = &h
		return nil
	})
	return header, err
}

func writeHeader(tx *bbolt.Tx, h *Header) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keyHeader, data)
}

// ComputeConfigHash computes a hash of the chunking settings of a corpus.
// Entries written under different hashes were split differently.
func ComputeConfigHash(corpus config.CorpusConfig) string {
	relevant := struct {
		Loader       string   `json:"loader"`
		ChunkSize    int      `json:"chunk_size"`
		ChunkOverlap int      `json:"chunk_overlap"`
		Separators   []string `json:"separators"`
	}{
		Loader:       corpus.Loader,
		ChunkSize:    corpus.ChunkSize,
		ChunkOverlap: corpus.ChunkOverlap,
		Separators:   corpus.Separators,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// RecordConfigHash stores hash in the header. It returns true when the store
// already held entries written under a different hash. Stores without a
// header (no entries yet) are left untouched.
func (s *BoltIndex) RecordConfigHash(hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.header == nil {
		return false, nil
	}
	changed := s.header.ConfigHash != "" && s.header.ConfigHash != hash
	if s.header.ConfigHash == hash {
		return false, nil
	}

	updated := *s.header
	updated.ConfigHash = hash
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return writeHeader(tx, &updated)
	})
	if err != nil {
		return false, fmt.Errorf("failed to update store header: %w", err)
	}
	s.header = &updated
	return changed, nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// configHashRecorder is implemented by indexes that remember the chunking
// settings they were built with.
type configHashRecorder interface {
	RecordConfigHash(hash string) (bool, error)
}

// IngestUseCase runs Loader -> Chunker -> Embedder -> VectorIndex for one
// corpus. Documents are processed one at a time.
type IngestUseCase struct {
	loader     port.Loader
	chunker    port.Chunker
	index      port.VectorIndex
	configHash string
	progress   func(done, total int)
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(loader port.Loader, chunker port.Chunker, index port.VectorIndex) *IngestUseCase {
	return &IngestUseCase{
		loader:  loader,
		chunker: chunker,
		index:   index,
	}
}

// WithConfigHash records hash in indexes that support it once ingestion
// succeeds, warning when earlier entries were chunked differently.
func (u *IngestUseCase) WithConfigHash(hash string) *IngestUseCase {
	u.configHash = hash
	return u
}

// OnProgress registers a callback invoked after each document.
func (u *IngestUseCase) OnProgress(fn func(done, total int)) *IngestUseCase {
	u.progress = fn
	return u
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	Documents     int
	Chunks        int
	Indexed       int
	StoreEntries  int
	ConfigChanged bool
	Duration      time.Duration
}

// Ingest loads every document under inputDir and indexes its chunks.
func (u *IngestUseCase) Ingest(ctx context.Context, inputDir string) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{}

	docs, err := u.loader.Load(ctx, inputDir)
	if err != nil {
		return nil, err
	}
	result.Documents = len(docs)
	logging.Info("loaded %d documents from %s", len(docs), inputDir)

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunks, err := u.chunker.Chunk(docs[i : i+1])
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.Metadata.Source, err)
		}
		result.Chunks += len(chunks)

		n, err := u.index.Index(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", doc.Metadata.Source, err)
		}
		result.Indexed += n

		if u.progress != nil {
			u.progress(i+1, len(docs))
		}
	}

	if recorder, ok := u.index.(configHashRecorder); ok && u.configHash != "" {
		changed, err := recorder.RecordConfigHash(u.configHash)
		if err != nil {
			return nil, err
		}
		if changed {
			logging.Warn("store already held fragments chunked with different settings; rebuild it for consistent results")
		}
		result.ConfigChanged = changed
	}

	result.StoreEntries, err = u.index.Count()
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

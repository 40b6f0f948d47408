package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/embedding"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/llm"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/store"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

// openCorpus opens the existing store of a corpus with the embedder it was
// built with.
func openCorpus(name string) (*store.BoltIndex, error) {
	cfg := GetConfig()
	corpus, err := cfg.Corpus(name)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(cfg.EmbeddingFor(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	idx, err := store.Open(corpus.StoreDir, embedder)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, fmt.Errorf("%w: corpus %s has no index at %s. Run 'asistente ingest %s' first",
				err, name, corpus.StoreDir, name)
		}
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// createCorpus opens the store of a corpus for writing, creating it when
// missing.
func createCorpus(name string, wipe bool) (*store.BoltIndex, error) {
	cfg := GetConfig()
	corpus, err := cfg.Corpus(name)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(cfg.EmbeddingFor(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	idx, err := store.Create(corpus.StoreDir, embedder, wipe)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

func newGenerator() (port.Generator, error) {
	gen, err := llm.New(GetConfig().Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return gen, nil
}

// newAssistant wires the answering pipeline over the configured corpus. The
// returned index must be closed by the caller.
func newAssistant() (*usecase.Assistant, *store.BoltIndex, error) {
	cfg := GetConfig()
	idx, err := openCorpus(cfg.Assistant.Corpus)
	if err != nil {
		return nil, nil, err
	}
	gen, err := newGenerator()
	if err != nil {
		idx.Close()
		return nil, nil, err
	}
	retriever := usecase.NewRetriever(idx, cfg.Assistant.TopK, cfg.Assistant.MaxDistance)
	return usecase.NewAssistant(retriever, gen, cfg.Assistant.Profile), idx, nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

package embedding

import (
	"fmt"
	"os"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/cache"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// New builds the embedder described by cfg. When cfg.CacheSize is positive
// the embedder is wrapped in a cache.CachedEmbedder.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	var embedder port.Embedder

	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		embedder = NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimension, cfg.BatchSize, cfg.Timeout)
	case "openai":
		apiKey := ""
		if cfg.APIKeyEnv != "" {
			apiKey = os.Getenv(cfg.APIKeyEnv)
		}
		embedder = NewOpenAIEmbedder(cfg.BaseURL, apiKey, cfg.Model, cfg.Dimension, cfg.BatchSize, cfg.Timeout)
	case "tei":
		embedder = NewTEIEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimension, cfg.BatchSize, cfg.Timeout)
	case "local":
		embedder = NewHashEmbedder(cfg.Dimension, cfg.Language)
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnknownProvider, cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		embedder = cache.NewCachedEmbedder(embedder, cfg.CacheSize, cfg.CacheTTL)
	}
	return embedder, nil
}

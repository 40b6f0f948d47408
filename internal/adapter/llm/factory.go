package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// New builds the generator described by cfg.
func New(cfg config.GenerationConfig) (port.Generator, error) {
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "ollama":
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.Timeout), nil
	case "openai", "deepseek", "openai-compatible":
		apiKey := ""
		if cfg.APIKeyEnv != "" {
			apiKey = os.Getenv(cfg.APIKeyEnv)
		}
		return NewOpenAIGenerator(provider, cfg.BaseURL, apiKey, cfg.Model, cfg.Temperature, cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w: generation provider %q", domain.ErrUnknownProvider, cfg.Provider)
	}
}

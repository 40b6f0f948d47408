package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

var _ port.Generator = (*OllamaGenerator)(nil)

// OllamaGenerator calls Ollama's /api/generate endpoint. Streams are NDJSON,
// one object per line.
type OllamaGenerator struct {
	baseURL     string
	model       string
	temperature float64
	timeout     time.Duration
	client      *http.Client
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaGenerator(baseURL, model string, temperature float64, timeout time.Duration) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OllamaGenerator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		client:      &http.Client{},
	}
}

func (g *OllamaGenerator) ModelName() string {
	return g.model
}

func (g *OllamaGenerator) post(ctx context.Context, prompt string, stream bool) (*http.Response, context.CancelFunc, error) {
	body, err := json.Marshal(generateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  stream,
		Options: map[string]any{"temperature": g.temperature},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logging.Debug("ollama generate model=%s stream=%v prompt=%d chars", g.model, stream, len(prompt))
	resp, err := g.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: ollama: %v", domain.ErrGenerationFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("%w: ollama returned status %d: %s", domain.ErrGenerationFailed, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return resp, cancel, nil
}

func (g *OllamaGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	resp, cancel, err := g.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", domain.ErrGenerationFailed, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("%w: %s", domain.ErrGenerationFailed, result.Error)
	}
	return result.Response, nil
}

func (g *OllamaGenerator) Stream(ctx context.Context, prompt string) (port.Stream, error) {
	resp, cancel, err := g.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(resp.Body)
	pull := func() (string, bool, error) {
		var chunk generateResponse
		if err := decoder.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return "", true, nil
			}
			return "", false, err
		}
		if chunk.Error != "" {
			return "", false, errors.New(chunk.Error)
		}
		return chunk.Response, chunk.Done, nil
	}
	return newBodyStream(pull, resp.Body, cancel), nil
}

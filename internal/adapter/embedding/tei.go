package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

var _ port.Embedder = (*TEIEmbedder)(nil)

// TEIEmbedder calls a HuggingFace text-embeddings-inference server, which is
// how sentence-transformers models are served outside Python.
type TEIEmbedder struct {
	baseURL   string
	model     string
	dimension *vectorSize
	batchSize int
	client    *http.Client
}

type teiRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

func NewTEIEmbedder(baseURL, model string, dimension, batchSize int, timeout time.Duration) *TEIEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	if dimension == 0 {
		dimension = knownDimension(model)
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &TEIEmbedder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		dimension: newVectorSize(dimension),
		batchSize: batchSize,
		client:    &http.Client{Timeout: timeout},
	}
}

func (e *TEIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: tei: %v", domain.ErrEmbeddingFailed, err)
		}
		out = append(out, batch...)
	}

	e.dimension.learn(out)
	return out, nil
}

func (e *TEIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: texts, Truncate: true})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, preview(data))
	}

	var vectors [][]float32
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

func (e *TEIEmbedder) Dimension() int {
	return e.dimension.get()
}

func (e *TEIEmbedder) ModelName() string {
	return e.model
}

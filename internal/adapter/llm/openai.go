package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

var _ port.Generator = (*OpenAIGenerator)(nil)

// ChatMessage represents a message in the chat format
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request format for chat completions
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

// ChatResponse is the response format from chat completions
type ChatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Provider presets for OpenAI-compatible endpoints.
var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"deepseek": {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY"},
	"openai":   {"https://api.openai.com/v1", "OPENAI_API_KEY"},
}

// OpenAIGenerator calls an OpenAI-compatible /chat/completions endpoint.
// Streams are server-sent events terminated by "data: [DONE]".
type OpenAIGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration
	client      *http.Client
}

// NewOpenAIGenerator creates a client for provider ("openai", "deepseek" or
// any name when baseURL is given). An empty apiKey is read from the
// provider's usual environment variable.
func NewOpenAIGenerator(provider, baseURL, apiKey, model string, temperature float64, timeout time.Duration) (*OpenAIGenerator, error) {
	p, ok := providers[provider]
	if !ok && baseURL == "" {
		return nil, fmt.Errorf("%w: %s (set generation.base_url for custom endpoints)", domain.ErrUnknownProvider, provider)
	}

	if baseURL == "" {
		baseURL = p.baseURL
	}

	if apiKey == "" && p.keyEnvVar != "" {
		apiKey = os.Getenv(p.keyEnvVar)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found. Set %s environment variable", p.keyEnvVar)
		}
	}

	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &OpenAIGenerator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		client:      &http.Client{},
	}, nil
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}

func (g *OpenAIGenerator) post(ctx context.Context, prompt string, stream bool) (*http.Response, context.CancelFunc, error) {
	jsonData, err := json.Marshal(ChatRequest{
		Model:       g.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: g.temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	logging.Debug("chat completion model=%s stream=%v prompt=%d chars", g.model, stream, len(prompt))
	resp, err := g.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: request failed: %v", domain.ErrGenerationFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("%w: API returned status %d: %s", domain.ErrGenerationFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, cancel, nil
}

func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	resp, cancel, err := g.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", domain.ErrGenerationFailed, err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", domain.ErrGenerationFailed, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: API error: %s", domain.ErrGenerationFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from LLM", domain.ErrGenerationFailed)
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) Stream(ctx context.Context, prompt string) (port.Stream, error) {
	resp, cancel, err := g.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(resp.Body)
	pull := func() (string, bool, error) {
		for {
			line, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return "", false, err
			}
			eof := errors.Is(err, io.EOF)

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				if eof {
					return "", true, nil
				}
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return "", true, nil
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return "", false, fmt.Errorf("failed to parse stream chunk: %w", err)
			}
			if chunk.Error != nil {
				return "", false, errors.New(chunk.Error.Message)
			}
			if len(chunk.Choices) == 0 {
				if eof {
					return "", true, nil
				}
				continue
			}
			return chunk.Choices[0].Delta.Content, eof, nil
		}
	}
	return newBodyStream(pull, resp.Body, cancel), nil
}

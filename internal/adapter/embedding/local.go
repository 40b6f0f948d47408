package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/analyzer"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

var _ port.Embedder = (*HashEmbedder)(nil)

// HashEmbedder is an offline embedder: analyzer tokens are hashed into a
// fixed number of buckets and the resulting term-frequency vector is L2
// normalised. Texts sharing stems end up close; texts sharing nothing are
// orthogonal unless two tokens collide.
type HashEmbedder struct {
	dimension int
	language  string
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int, language string) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	if language == "" {
		language = "es"
	}
	return &HashEmbedder{
		dimension: dimension,
		language:  language,
		tokenizer: analyzer.NewTokenizer(language),
	}
}

func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.embedOne(text)
	}
	return embeddings, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, token := range e.tokenizer.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("local-hash-%s-%d", e.language, e.dimension)
}

package store

import (
	"math"
	"sort"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// Candidate is a stored (vector, chunk) pair. Seq is the insertion order and
// breaks distance ties.
type Candidate struct {
	Seq    uint64
	Vector []float32
	Chunk  domain.Chunk
}

// Rank scores every candidate against query (brute force) and returns at
// most k results by ascending distance.
func Rank(query []float32, candidates []Candidate, k int) []domain.ScoredChunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		seq      uint64
		distance float64
		chunk    domain.Chunk
	}

	scores := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		scores = append(scores, scored{
			seq:      c.Seq,
			distance: CosineDistance(query, c.Vector),
			chunk:    c.Chunk,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].distance != scores[j].distance {
			return scores[i].distance < scores[j].distance
		}
		return scores[i].seq < scores[j].seq
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredChunk{Chunk: scores[i].chunk, Distance: scores[i].distance}
	}
	return results
}

// CosineDistance returns 1 - cosine similarity. Zero vectors and vectors of
// different length are at distance 1.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
}

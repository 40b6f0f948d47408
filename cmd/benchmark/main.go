package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/embedding"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/store"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

func main() {
	baseDir := flag.String("dir", ".", "Directory holding asistente.yaml")
	corpus := flag.String("corpus", "documentos", "Corpus to query")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 6, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -corpus documentos -q \"query\"")
		fmt.Println("\nChecks:")
		fmt.Println("  1. Embedding infrastructure (model connection, store header)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Whether the top hits would pass the assistant's distance filter")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	cfg.ResolvePaths(*baseDir)

	corpusCfg, err := cfg.Corpus(*corpus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	embedCfg := cfg.EmbeddingFor(*corpus)
	embedder, err := embedding.New(embedCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	idx, err := store.Open(corpusCfg.StoreDir, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer idx.Close()

	count, _ := idx.Count()
	if count == 0 {
		fmt.Fprintf(os.Stderr, "No entries - run 'asistente ingest %s' first\n", *corpus)
		os.Exit(1)
	}

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Corpus: %s (%d entries)\n", *corpus, count)
	fmt.Printf("Model: %s (%s)\n", embedCfg.Model, embedCfg.Provider)
	if h := idx.Header(); h != nil {
		fmt.Printf("Dimension: %d\n", h.Dimension)
	}
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := idx.Query(context.Background(), *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := []rune(r.Chunk.Text)
		text := string(preview)
		if len(preview) > 150 {
			text = string(preview[:150]) + "..."
		}
		text = strings.ReplaceAll(text, "\n", " ")

		similarity := 1 - r.Distance
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating, similarity, location(r.Chunk.Metadata))
		fmt.Printf("   %s\n\n", text)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", 1-results[0].Distance)

	if maxDist := cfg.Assistant.MaxDistance; maxDist > 0 {
		kept := 0
		for _, r := range results {
			if r.Distance <= maxDist {
				kept++
			}
		}
		fmt.Printf("  Within max_distance %.2f: %d/%d\n", maxDist, kept, len(results))
	}

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-ingestion")
	}
}

func location(m domain.Metadata) string {
	source := filepath.Base(m.Source)
	if m.Source == "" {
		source = domain.UnknownSource
	}
	if m.Page == nil {
		return source
	}
	return fmt.Sprintf("%s p.%d", source, *m.Page)
}

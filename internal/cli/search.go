package cli

import (
	"encoding/json"
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
	searchDump bool
)

var searchCmd = &cobra.Command{
	Use:   "search <corpus>",
	Short: "Show the nearest fragments of a corpus",
	Long: `Query a corpus store directly, without the language model, to inspect
what retrieval returns for a text.

Examples:
  asistente search documentos -q "anulación de matrícula"
  asistente search reglas -q "consentimiento" -k 8 --dump`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search text (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 4, "number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVar(&searchDump, "dump", false, "pretty-print the raw results")
	searchCmd.MarkFlagRequired("query")
}

// searchResult is the display form of one hit.
type searchResult struct {
	Rank     int     `json:"rank"`
	Distance float64 `json:"distance"`
	Source   string  `json:"source"`
	Page     *int    `json:"page,omitempty"`
	Text     string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	idx, err := openCorpus(args[0])
	if err != nil {
		return err
	}
	defer idx.Close()

	hits, err := idx.Query(cmd.Context(), searchText, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchDump {
		pp.Println(hits)
		return nil
	}

	results := make([]searchResult, len(hits))
	for i, h := range hits {
		results[i] = searchResult{
			Rank:     i + 1,
			Distance: h.Distance,
			Source:   h.Chunk.Metadata.Source,
			Page:     h.Chunk.Metadata.Page,
			Text:     h.Chunk.Text,
		}
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchText)
	for _, r := range results {
		page := "?"
		if r.Page != nil {
			page = fmt.Sprint(*r.Page)
		}
		fmt.Printf("--- [%d] %s (Pág %s) (distance: %.4f) ---\n", r.Rank, r.Source, page, r.Distance)
		fmt.Println(truncateRunes(r.Text, 300))
		fmt.Println()
	}
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

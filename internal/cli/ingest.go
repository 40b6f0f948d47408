package cli

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/chunker"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/loader"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/store"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

var ingestRebuild bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [corpus...]",
	Short: "Index a corpus into its vector store",
	Long: `Load, chunk, embed and store the source files of one or more corpora.
Without arguments every corpus that has an input directory is ingested.
Corpora configured with rebuild are wiped first; the others are appended to.

Examples:
  asistente ingest                 # Every corpus with sources
  asistente ingest documentos      # Regulation PDFs only
  asistente ingest reglas --rebuild`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "wipe the store before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	names := args
	if len(names) == 0 {
		for _, name := range cfg.CorpusNames() {
			if c := cfg.Corpora[name]; c.Loader != "" && c.InputDir != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no corpus with an input directory is configured")
	}

	for _, name := range names {
		if err := ingestCorpus(cmd, name); err != nil {
			return err
		}
	}
	return nil
}

func ingestCorpus(cmd *cobra.Command, name string) error {
	cfg := GetConfig()
	corpus, err := cfg.Corpus(name)
	if err != nil {
		return err
	}
	if corpus.Loader == "" || corpus.InputDir == "" {
		return fmt.Errorf("corpus %s has no sources to ingest", name)
	}

	// Checked before the store is touched so a rebuild never wipes an index
	// it cannot refill.
	if info, err := os.Stat(corpus.InputDir); err != nil || !info.IsDir() {
		fmt.Printf("No se encuentra la carpeta %s\n", corpus.InputDir)
		return fmt.Errorf("ingestion of %s failed: %w: %s", name, domain.ErrInputDirMissing, corpus.InputDir)
	}

	l, err := loader.New(corpus.Loader, corpus.Includes, corpus.Excludes)
	if err != nil {
		if errors.Is(err, loader.ErrPDFToolNotFound) {
			fmt.Println("No se encuentra pdftotext. Instala poppler-utils para leer los PDF.")
		}
		return fmt.Errorf("ingestion of %s failed: %w", name, err)
	}

	var opts []chunker.Option
	if len(corpus.Separators) > 0 {
		opts = append(opts, chunker.WithSeparators(corpus.Separators))
	}
	chk := chunker.NewRecursiveChunker(corpus.ChunkSize, corpus.ChunkOverlap, opts...)

	wipe := corpus.Rebuild || ingestRebuild
	idx, err := createCorpus(name, wipe)
	if err != nil {
		return err
	}
	defer idx.Close()

	if wipe {
		fmt.Printf("Rebuilding %s from scratch...\n", name)
	}
	fmt.Printf("Scanning %s...\n", corpus.InputDir)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(processed, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	ingestUC := usecase.NewIngestUseCase(l, chk, idx).
		WithConfigHash(store.ComputeConfigHash(corpus)).
		OnProgress(progressCallback)

	result, err := ingestUC.Ingest(cmd.Context(), corpus.InputDir)
	if err != nil {
		if errors.Is(err, domain.ErrInputDirMissing) {
			fmt.Printf("No se encuentra la carpeta %s\n", corpus.InputDir)
		}
		return fmt.Errorf("ingestion of %s failed: %w", name, err)
	}

	fmt.Printf("\nIngestion of %s complete:\n", name)
	fmt.Printf("  Documents:      %d\n", result.Documents)
	fmt.Printf("  Fragments:      %d\n", result.Chunks)
	fmt.Printf("  Store entries:  %d\n", result.StoreEntries)
	fmt.Printf("  Duration:       %s\n", formatDuration(result.Duration))
	if result.ConfigChanged {
		fmt.Printf("\nWarning: the store holds fragments chunked with different settings. Run with --rebuild for consistent results.\n")
	}
	fmt.Printf("\nIndex stored at: %s\n", idx.Dir())
	return nil
}

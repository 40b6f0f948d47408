package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// useRebuildCorpus installs a config whose documentos corpus is a text corpus
// rebuilt on every ingest, with its store under dir.
func useRebuildCorpus(t *testing.T, dir, inputDir string) {
	t.Helper()
	c := config.DefaultConfig()
	c.Embedding = config.EmbeddingConfig{Provider: "local", Dimension: 64, Language: "es"}
	corpus := c.Corpora["documentos"]
	corpus.Loader = config.LoaderText
	corpus.Includes = []string{"**/*.txt"}
	corpus.InputDir = inputDir
	corpus.StoreDir = filepath.Join(dir, "store")
	corpus.Rebuild = true
	c.Corpora["documentos"] = corpus

	orig := cfg
	cfg = c
	t.Cleanup(func() { cfg = orig })
}

func seedCorpus(t *testing.T, name string) {
	t.Helper()
	idx, err := createCorpus(name, false)
	require.NoError(t, err)
	_, err = idx.Index(context.Background(), []domain.Chunk{{ID: "c1", Text: "La matrícula se abre en julio."}})
	require.NoError(t, err)
	require.NoError(t, idx.Close())
}

func corpusCount(t *testing.T, name string) int {
	t.Helper()
	idx, err := openCorpus(name)
	require.NoError(t, err)
	defer idx.Close()
	count, err := idx.Count()
	require.NoError(t, err)
	return count
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestIngestCorpus_MissingInputDirKeepsStore(t *testing.T) {
	dir := t.TempDir()
	useRebuildCorpus(t, dir, filepath.Join(dir, "no-existe"))
	seedCorpus(t, "documentos")

	err := ingestCorpus(testCommand(), "documentos")
	require.ErrorIs(t, err, domain.ErrInputDirMissing)

	assert.Equal(t, 1, corpusCount(t, "documentos"), "the previous index survives a failed rebuild")
}

func TestIngestCorpus_MissingInputDirCreatesNoStore(t *testing.T) {
	dir := t.TempDir()
	useRebuildCorpus(t, dir, filepath.Join(dir, "no-existe"))

	err := ingestCorpus(testCommand(), "documentos")
	require.ErrorIs(t, err, domain.ErrInputDirMissing)

	_, err = openCorpus("documentos")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestIngestCorpus_RebuildReplacesEntries(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(input, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(input, "plazos.txt"),
		[]byte("El plazo de reclamación es de diez días hábiles."), 0644))

	useRebuildCorpus(t, dir, input)
	seedCorpus(t, "documentos")
	seedCorpus(t, "documentos")
	require.Equal(t, 2, corpusCount(t, "documentos"))

	require.NoError(t, ingestCorpus(testCommand(), "documentos"))
	assert.Equal(t, 1, corpusCount(t, "documentos"))
}

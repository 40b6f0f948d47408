package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/chunker"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/loader"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/memstore"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/store"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func textLoader(t *testing.T) *loader.DirLoader {
	t.Helper()
	l, err := loader.New(config.LoaderText, []string{"**/*.txt"}, nil)
	require.NoError(t, err)
	return l
}

func TestIngest_ProgressAndCounts(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.txt":        "Artículo 1. La matrícula se formaliza en julio.",
		"sub/b.txt":    "Artículo 2. Las tasas se abonan por transferencia.",
		"ignored.json": "[]",
	})
	idx := memstore.NewMemoryIndex(newTestEmbedder())

	var calls [][2]int
	res, err := NewIngestUseCase(textLoader(t), chunker.NewRecursiveChunker(1000, 100), idx).
		OnProgress(func(done, total int) { calls = append(calls, [2]int{done, total}) }).
		Ingest(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 2, res.StoreEntries)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestIngest_MissingDirectory(t *testing.T) {
	idx := memstore.NewMemoryIndex(newTestEmbedder())
	_, err := NewIngestUseCase(textLoader(t), chunker.NewRecursiveChunker(1000, 100), idx).
		Ingest(context.Background(), filepath.Join(t.TempDir(), "documentos_us"))
	assert.ErrorIs(t, err, domain.ErrInputDirMissing)

	n, _ := idx.Count()
	assert.Zero(t, n)
}

func TestIngest_AppendsWithoutDeduplication(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "Artículo 1. Texto."})
	idx := memstore.NewMemoryIndex(newTestEmbedder())
	uc := NewIngestUseCase(textLoader(t), chunker.NewRecursiveChunker(1000, 100), idx)

	_, err := uc.Ingest(context.Background(), dir)
	require.NoError(t, err)
	res, err := uc.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.StoreEntries)
}

func TestIngest_ConfigHashChangeIsReported(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "Artículo 1. Texto."})
	storeDir := filepath.Join(t.TempDir(), "store")

	idx, err := store.Create(storeDir, newTestEmbedder(), true)
	require.NoError(t, err)
	defer idx.Close()

	corpus := config.CorpusConfig{Loader: config.LoaderText, ChunkSize: 1000, ChunkOverlap: 100}
	first, err := NewIngestUseCase(textLoader(t), chunker.NewRecursiveChunker(1000, 100), idx).
		WithConfigHash(store.ComputeConfigHash(corpus)).
		Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, first.ConfigChanged)

	corpus.ChunkSize = 500
	second, err := NewIngestUseCase(textLoader(t), chunker.NewRecursiveChunker(500, 100), idx).
		WithConfigHash(store.ComputeConfigHash(corpus)).
		Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, second.ConfigChanged)
	assert.Equal(t, 2, second.StoreEntries)
}

func TestIngest_CancelledContext(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "Artículo 1. Texto."})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIngestUseCase(textLoader(t), chunker.NewRecursiveChunker(1000, 100), memstore.NewMemoryIndex(newTestEmbedder())).
		Ingest(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

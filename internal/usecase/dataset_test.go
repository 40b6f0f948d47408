package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/dataset"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

const sampleDataset = `[
  {"title": "Entrevista uno", "summary": "Resumen", "utt": ["Hola.", "Buenas tardes."]},
  {"title": null, "utt": "Texto plano"}
]`

func TestDatasetMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_dialogue.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDataset), 0644))

	repo, err := dataset.Open("sqlite", filepath.Join(t.TempDir(), "entrevistas.db"))
	require.NoError(t, err)
	defer repo.Close()

	uc := NewDatasetUseCase(repo)
	ctx := context.Background()

	n, err := uc.Migrate(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = uc.Migrate(ctx, path)
	require.NoError(t, err)
	count, err := uc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count, "migrating twice duplicates rows")

	rows, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Hola.\nBuenas tardes.", rows[0].Transcript)
	assert.Equal(t, dataset.MissingTitle, rows[1].Title)
	assert.Equal(t, dataset.MissingSummary, rows[1].Summary)
}

func TestDatasetMigrate_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title": "x"}`), 0644))

	uc := NewDatasetUseCase(&fakeInterviews{})
	_, err := uc.Migrate(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrMalformedDataset)
}

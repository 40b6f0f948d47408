package usecase

import (
	"context"
	"fmt"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/dataset"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// DatasetUseCase moves the interview dataset file into the relational store.
type DatasetUseCase struct {
	repo port.InterviewRepository
}

func NewDatasetUseCase(repo port.InterviewRepository) *DatasetUseCase {
	return &DatasetUseCase{repo: repo}
}

// Migrate validates the dataset at path, creates the entrevistas table if
// needed and inserts every record. Running it twice inserts the rows twice.
func (u *DatasetUseCase) Migrate(ctx context.Context, path string) (int, error) {
	records, err := dataset.ParseFile(path)
	if err != nil {
		return 0, err
	}
	logging.Info("parsed %d records from %s", len(records), path)

	if err := u.repo.Migrate(ctx); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}

	n, err := u.repo.Insert(ctx, dataset.Interviews(records))
	if err != nil {
		return 0, fmt.Errorf("failed to insert interviews: %w", err)
	}
	return n, nil
}

// Count returns the number of stored interviews.
func (u *DatasetUseCase) Count(ctx context.Context) (int64, error) {
	return u.repo.Count(ctx)
}

package port

import (
	"context"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// Loader reads every supported file under a directory.
type Loader interface {
	Load(ctx context.Context, dir string) ([]domain.Document, error)
}

// Chunker splits documents into bounded, overlapping chunks.
type Chunker interface {
	Chunk(docs []domain.Document) ([]domain.Chunk, error)
}

// InterviewRepository is the relational source of the interview dataset.
type InterviewRepository interface {
	Migrate(ctx context.Context) error
	Insert(ctx context.Context, interviews []domain.Interview) (int, error)
	List(ctx context.Context, limit int) ([]domain.Interview, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

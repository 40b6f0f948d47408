package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/dataset"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// JSONLoader reads interview dataset files: one document per record, with the
// record index as its page.
type JSONLoader struct{}

func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

func (l *JSONLoader) LoadFile(_ context.Context, path string) ([]domain.Document, error) {
	records, err := dataset.ParseFile(path)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(records))
	for i, r := range records {
		iv := r.Interview()
		docs = append(docs, domain.Document{
			Text: fmt.Sprintf("TITULO: %s\nRESUMEN: %s\n\n%s", iv.Title, iv.Summary, strings.TrimSpace(iv.Transcript)),
			Metadata: domain.Metadata{
				Source: path,
				Page:   domain.PageNumber(i),
				Title:  iv.Title,
			},
		})
	}
	return docs, nil
}

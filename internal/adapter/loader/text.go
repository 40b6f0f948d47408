package loader

import (
	"context"
	"os"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// TextLoader reads a plain text file as a single document with no page.
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) LoadFile(_ context.Context, path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []domain.Document{{
		Text:     text,
		Metadata: domain.Metadata{Source: path},
	}}, nil
}

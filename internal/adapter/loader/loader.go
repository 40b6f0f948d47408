// Package loader reads corpus source files into documents.
package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// FileLoader turns one file into zero or more documents.
type FileLoader interface {
	LoadFile(ctx context.Context, path string) ([]domain.Document, error)
}

var _ port.Loader = (*DirLoader)(nil)

// DirLoader applies a FileLoader to every file a Walker finds.
type DirLoader struct {
	walker *Walker
	files  FileLoader
}

func NewDirLoader(walker *Walker, files FileLoader) *DirLoader {
	return &DirLoader{walker: walker, files: files}
}

// New builds the loader for a corpus loader kind. The pdf kind needs
// pdftotext on PATH.
func New(kind string, includes, excludes []string) (*DirLoader, error) {
	var files FileLoader
	switch kind {
	case "pdf":
		if err := CheckAvailable(); err != nil {
			return nil, err
		}
		files = NewPDFLoader(ExecRunner{})
	case "text":
		files = NewTextLoader()
	case "json":
		files = NewJSONLoader()
	case "html":
		files = NewHTMLLoader()
	default:
		return nil, fmt.Errorf("unsupported loader: %q", kind)
	}
	return NewDirLoader(NewWalker(includes, excludes), files), nil
}

// Load reads every matching file under dir, in lexical path order. A missing
// or non-directory dir yields ErrInputDirMissing.
func (l *DirLoader) Load(ctx context.Context, dir string) ([]domain.Document, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInputDirMissing, dir)
	}

	paths, err := l.walker.Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	logging.Debug("loader: %d files under %s", len(paths), dir)

	var docs []domain.Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := l.files.LoadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		for i := range loaded {
			if loaded[i].ID == "" {
				loaded[i].ID = uuid.NewString()
			}
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

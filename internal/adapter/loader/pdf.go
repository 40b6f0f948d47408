package loader

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH (install poppler-utils)")

var lookPath = exec.LookPath

// CheckAvailable reports whether pdftotext can be run.
func CheckAvailable() error {
	if _, err := lookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// PDFLoader extracts text with poppler's pdftotext and yields one document
// per non-empty page. Pages are numbered from 0.
type PDFLoader struct {
	runner CommandRunner
}

func NewPDFLoader(runner CommandRunner) *PDFLoader {
	return &PDFLoader{runner: runner}
}

func (l *PDFLoader) LoadFile(ctx context.Context, path string) ([]domain.Document, error) {
	out, err := l.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}

	// pdftotext terminates every page with a form feed.
	pages := strings.Split(string(out), "\f")
	docs := make([]domain.Document, 0, len(pages))
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Text: page,
			Metadata: domain.Metadata{
				Source: path,
				Page:   domain.PageNumber(i),
			},
		})
	}
	return docs, nil
}

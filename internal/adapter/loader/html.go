package loader

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

var blankLines = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)

// HTMLLoader reads saved web pages (secretaría FAQs, notices) as one
// document each, dropping scripts, styles and navigation.
type HTMLLoader struct{}

func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

func (l *HTMLLoader) LoadFile(_ context.Context, path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := normalizeWhitespace(body.Text())
	if text == "" {
		return nil, nil
	}

	return []domain.Document{{
		Text: text,
		Metadata: domain.Metadata{
			Source: path,
			Title:  title,
		},
	}}, nil
}

// normalizeWhitespace trims every line and collapses runs of blank lines into
// a paragraph break.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

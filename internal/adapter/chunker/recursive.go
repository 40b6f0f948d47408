package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// DefaultSeparators are tried in order: paragraph, line, sentence, word.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

var _ port.Chunker = (*RecursiveChunker)(nil)

// RecursiveChunker splits text into windows of at most size characters
// (runes), carrying overlap characters of the previous window into the next.
// Text is cut on the first separator that occurs in it; pieces still too
// large are cut again with the finer separators and, as a last resort, by
// character count.
type RecursiveChunker struct {
	size       int
	overlap    int
	separators []string
}

// Option configures a RecursiveChunker.
type Option func(*RecursiveChunker)

// WithSeparators replaces the default separator list. Separators are tried in
// the given order.
func WithSeparators(seps []string) Option {
	return func(c *RecursiveChunker) {
		if len(seps) > 0 {
			c.separators = seps
		}
	}
}

// NewRecursiveChunker creates a chunker. An overlap that is not smaller than
// size is clamped to size-1.
func NewRecursiveChunker(size, overlap int, opts ...Option) *RecursiveChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	c := &RecursiveChunker{
		size:       size,
		overlap:    overlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits every document, in order. Chunks inherit the parent metadata
// and record their ordinal.
func (c *RecursiveChunker) Chunk(docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		for i, text := range c.Split(doc.Text) {
			meta := doc.Metadata
			meta.Chunk = i
			chunks = append(chunks, domain.Chunk{
				ID:       uuid.NewString(),
				DocID:    doc.ID,
				Ordinal:  i,
				Text:     text,
				Metadata: meta,
			})
		}
	}
	return chunks, nil
}

// Split returns the chunk texts for a single string.
func (c *RecursiveChunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= c.size {
		return []string{text}
	}

	// Every window is a body of at most step runes plus the overlap taken
	// from the text right before it.
	step := c.size - c.overlap
	pieces := c.splitRecursive(text, c.separators, step)

	var bodies [][2]int
	pos, start, cur := 0, 0, 0
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if cur > 0 && cur+n > step {
			bodies = append(bodies, [2]int{start, pos})
			start, cur = pos, 0
		}
		pos += n
		cur += n
	}
	if cur > 0 {
		bodies = append(bodies, [2]int{start, pos})
	}

	runes := []rune(text)
	window := func(b [2]int) []rune {
		return runes[max(b[0]-c.overlap, 0):b[1]]
	}

	// A blank window would break the overlap chain if dropped, so its body
	// takes runes from the following bodies until it has content or reaches
	// step. Only a whitespace run of at least step runes leaves it blank.
	kept := make([][2]int, 0, len(bodies))
	for i := 0; i < len(bodies); i++ {
		b := bodies[i]
		for isBlank(window(b)) && i+1 < len(bodies) && b[1]-b[0] < step {
			next := &bodies[i+1]
			end := min(next[1], b[0]+step)
			b[1], next[0] = end, end
			if next[0] == next[1] {
				i++
			}
		}
		kept = append(kept, b)
	}

	out := make([]string, 0, len(kept))
	for _, b := range kept {
		out = append(out, string(window(b)))
	}
	for len(out) > 0 && strings.TrimSpace(out[0]) == "" {
		out = out[1:]
	}
	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	return out
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// splitRecursive partitions text into contiguous pieces of at most limit
// runes. Concatenating the result yields text.
func (c *RecursiveChunker) splitRecursive(text string, seps []string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	for i, sep := range seps {
		if sep == "" || !strings.Contains(text, sep) {
			continue
		}
		var pieces []string
		for _, part := range splitKeepingSeparator(text, sep) {
			if utf8.RuneCountInString(part) <= limit {
				pieces = append(pieces, part)
				continue
			}
			pieces = append(pieces, c.splitRecursive(part, seps[i+1:], limit)...)
		}
		return pieces
	}

	return splitRunes(text, limit)
}

// splitKeepingSeparator splits on sep and keeps each separator at the start
// of the piece that follows it.
func splitKeepingSeparator(text, sep string) []string {
	var parts []string
	for {
		idx := strings.Index(text[1:], sep)
		if idx < 0 {
			break
		}
		idx++
		parts = append(parts, text[:idx])
		text = text[idx:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func splitRunes(text string, limit int) []string {
	runes := []rune(text)
	parts := make([]string, 0, len(runes)/limit+1)
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
	}
	return parts
}

// Package dataset reads the interview dataset file and stores it in the
// entrevistas table.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// Placeholders used when a record lacks a field.
const (
	MissingTitle      = "<sin title>"
	MissingSummary    = "<sin descripción>"
	MissingTranscript = "<sin transcripcion>"
)

// recordsSchema accepts an array of objects. Field types are checked loosely
// because utt comes as a list of utterances in some dumps and as a string in
// others.
const recordsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "title":   {"type": ["string", "null"]},
      "summary": {"type": ["string", "null"]}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(recordsSchema)

// Record is one entry of the dataset file.
type Record struct {
	Title   *string         `json:"title"`
	Summary *string         `json:"summary"`
	Utt     json.RawMessage `json:"utt"`
}

// ParseFile reads and parses a dataset file.
func ParseFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates data as an array of records. Blank input yields
// ErrEmptyDataset; anything that is not an array of objects yields
// ErrMalformedDataset.
func Parse(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	if data[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", domain.ErrMalformedDataset)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDataset, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedDataset, strings.Join(msgs, "; "))
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDataset, err)
	}
	return records, nil
}

// Interview converts a record to an interview row, filling placeholders for
// missing fields.
func (r Record) Interview() domain.Interview {
	iv := domain.Interview{
		Title:      MissingTitle,
		Summary:    MissingSummary,
		Transcript: r.Transcript(),
	}
	if r.Title != nil {
		iv.Title = *r.Title
	}
	if r.Summary != nil {
		iv.Summary = *r.Summary
	}
	return iv
}

// Transcript flattens utt to text: one line per utterance when it is a list.
func (r Record) Transcript() string {
	raw := bytes.TrimSpace(r.Utt)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return MissingTranscript
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			var line string
			if err := json.Unmarshal(item, &line); err == nil {
				lines = append(lines, line)
				continue
			}
			lines = append(lines, string(item))
		}
		return strings.Join(lines, "\n")
	}

	return string(raw)
}

// Interviews converts every record.
func Interviews(records []Record) []domain.Interview {
	out := make([]domain.Interview, len(records))
	for i, r := range records {
		out[i] = r.Interview()
	}
	return out
}

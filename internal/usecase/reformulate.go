package usecase

import (
	"context"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/prompt"
)

// Reformulator rewrites a follow-up question so it can be retrieved without
// the conversation around it.
type Reformulator struct {
	generator port.Generator
}

func NewReformulator(generator port.Generator) *Reformulator {
	return &Reformulator{generator: generator}
}

// Reformulate returns question unchanged when history is empty; the model
// is not called in that case. Generation errors are returned as is.
func (r *Reformulator) Reformulate(ctx context.Context, question string, history []domain.Turn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	p, err := prompt.Reformulate(history, question)
	if err != nil {
		return "", err
	}
	out, err := r.generator.Complete(ctx, p)
	if err != nil {
		return "", err
	}

	rewritten := firstLine(out)
	if rewritten == "" {
		return question, nil
	}
	logging.Debug("reformulated %q -> %q", question, rewritten)
	return rewritten, nil
}

// firstLine returns the first non-blank line of s, without a leading label
// or surrounding quotes.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "PREGUNTA REFORMULADA:")
		line = strings.Trim(strings.TrimSpace(line), `"«»`)
		if line != "" {
			return line
		}
	}
	return ""
}

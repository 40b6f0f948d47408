package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/prompt"
)

// Reviewer validates a piece of news against the rules corpus, using earlier
// audited interviews as style reference.
type Reviewer struct {
	rules     port.VectorIndex
	history   port.VectorIndex
	generator port.Generator
	rulesK    int
	historyK  int
}

// NewReviewer creates a reviewer. history may be nil when no audit has been
// run yet.
func NewReviewer(rules, history port.VectorIndex, generator port.Generator, rulesK, historyK int) *Reviewer {
	if rulesK < 1 {
		rulesK = 4
	}
	if historyK < 1 {
		historyK = 2
	}
	return &Reviewer{
		rules:     rules,
		history:   history,
		generator: generator,
		rulesK:    rulesK,
		historyK:  historyK,
	}
}

// Review returns the editorial report for text.
func (r *Reviewer) Review(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", domain.ErrInvalidInput)
	}

	rules, err := r.rules.Query(ctx, text, r.rulesK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve rules: %w", err)
	}

	var history []domain.ScoredChunk
	if r.history != nil {
		history, err = r.history.Query(ctx, text, r.historyK)
		if err != nil {
			return "", fmt.Errorf("failed to retrieve history: %w", err)
		}
	}

	p, err := prompt.Review(
		prompt.JoinContext(rules, contextSeparator),
		prompt.JoinContext(history, contextSeparator),
		text,
	)
	if err != nil {
		return "", err
	}

	report, err := r.generator.Complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("failed to review text: %w", err)
	}
	return report, nil
}

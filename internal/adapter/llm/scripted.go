package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

var _ port.Generator = (*Scripted)(nil)

// Scripted is an offline Generator for tests and dry runs. Respond, when
// set, computes every reply; otherwise Responses are returned in order and
// the last one repeats. Every prompt is recorded.
type Scripted struct {
	Respond   func(prompt string) (string, error)
	Responses []string
	Err       error

	mu      sync.Mutex
	prompts []string
}

// NewScripted returns a Scripted generator replying with responses in order.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{Responses: responses}
}

func (s *Scripted) ModelName() string {
	return "scripted"
}

func (s *Scripted) next(prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if s.Err != nil {
		return "", s.Err
	}
	if s.Respond != nil {
		return s.Respond(prompt)
	}
	if len(s.Responses) == 0 {
		return "", nil
	}
	i := len(s.prompts) - 1
	if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	return s.Responses[i], nil
}

func (s *Scripted) Complete(_ context.Context, prompt string) (string, error) {
	return s.next(prompt)
}

// Stream replays the reply word by word.
func (s *Scripted) Stream(_ context.Context, prompt string) (port.Stream, error) {
	reply, err := s.next(prompt)
	if err != nil {
		return nil, err
	}
	return NewSliceStream(strings.SplitAfter(reply, " "), nil), nil
}

// Prompts returns every prompt received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Calls returns the number of generation requests received.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/llm"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/prompt"
)

// contextSeparator joins retrieved chunks inside the prompt.
const contextSeparator = "\n\n"

// Answer is the blocking result of a question.
type Answer struct {
	Question     string
	Reformulated string
	Text         string
	Sources      []string
	Chunks       []domain.ScoredChunk
	// Fallback is set when nothing was retrieved and the model was skipped.
	Fallback bool
}

// StreamAnswer carries an incremental answer. Sources are known before the
// first fragment.
type StreamAnswer struct {
	Question     string
	Reformulated string
	Sources      []string
	Chunks       []domain.ScoredChunk
	Fallback     bool
	Stream       port.Stream
}

// Assistant answers questions from one corpus: reformulate, retrieve,
// compose, generate and cite.
type Assistant struct {
	retriever    *Retriever
	reformulator *Reformulator
	generator    port.Generator
	profile      string
}

// NewAssistant creates an assistant. profile selects the instruction
// template and its fallback sentence.
func NewAssistant(retriever *Retriever, generator port.Generator, profile string) *Assistant {
	return &Assistant{
		retriever:    retriever,
		reformulator: NewReformulator(generator),
		generator:    generator,
		profile:      profile,
	}
}

// Profile returns the deployment profile.
func (a *Assistant) Profile() string {
	return a.profile
}

type preparedAnswer struct {
	reformulated string
	chunks       []domain.ScoredChunk
	prompt       string
}

func (a *Assistant) prepare(ctx context.Context, question string, history []domain.Turn) (*preparedAnswer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logging.Section("Reformulate")
	reformulated, err := a.reformulator.Reformulate(ctx, question, history)
	if err != nil {
		return nil, fmt.Errorf("failed to reformulate question: %w", err)
	}

	logging.Section("Retrieve")
	chunks, err := a.retriever.Retrieve(ctx, reformulated)
	if err != nil {
		return nil, err
	}

	prepared := &preparedAnswer{reformulated: reformulated, chunks: chunks}
	if len(chunks) == 0 {
		return prepared, nil
	}

	prepared.prompt, err = prompt.Answer(a.profile, prompt.JoinContext(chunks, contextSeparator), reformulated)
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

// Answer runs the whole pipeline and waits for the complete answer.
func (a *Assistant) Answer(ctx context.Context, question string, history []domain.Turn) (*Answer, error) {
	p, err := a.prepare(ctx, question, history)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Question:     question,
		Reformulated: p.reformulated,
		Chunks:       p.chunks,
		Sources:      Citations(p.chunks),
	}
	if len(p.chunks) == 0 {
		answer.Text = prompt.Fallback(a.profile)
		answer.Fallback = true
		return answer, nil
	}

	logging.Section("Generate")
	answer.Text, err = a.generator.Complete(ctx, p.prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// AnswerStream runs the pipeline up to generation and returns the model
// output as a stream. The caller must Close it.
func (a *Assistant) AnswerStream(ctx context.Context, question string, history []domain.Turn) (*StreamAnswer, error) {
	p, err := a.prepare(ctx, question, history)
	if err != nil {
		return nil, err
	}

	answer := &StreamAnswer{
		Question:     question,
		Reformulated: p.reformulated,
		Chunks:       p.chunks,
		Sources:      Citations(p.chunks),
	}
	if len(p.chunks) == 0 {
		answer.Stream = llm.NewSliceStream([]string{prompt.Fallback(a.profile)}, nil)
		answer.Fallback = true
		return answer, nil
	}

	logging.Section("Generate")
	answer.Stream, err = a.generator.Stream(ctx, p.prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// Citations formats the metadata of retrieved chunks as
// "<source> (Pág <page>)", deduplicated and sorted.
func Citations(chunks []domain.ScoredChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		s := citationFor(c.Chunk)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func citationFor(c domain.Chunk) string {
	source := c.Metadata.Source
	if source != "" {
		source = filepath.Base(source)
	}
	return domain.Citation{Source: source, Page: c.Metadata.Page}.String()
}

// Session keeps the turns of one interactive conversation.
type Session struct {
	mu    sync.Mutex
	turns []domain.Turn
}

func NewSession() *Session {
	return &Session{}
}

// History returns a copy of the turns so far.
func (s *Session) History() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Record appends a completed question/answer exchange.
func (s *Session) Record(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns,
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: answer},
	)
}

// Reset forgets the conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/llm"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

type fakeAsker struct {
	fragments []string
	err       error
	histories [][]domain.Turn
}

func (f *fakeAsker) AnswerStream(_ context.Context, question string, history []domain.Turn) (*usecase.StreamAnswer, error) {
	f.histories = append(f.histories, history)
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.StreamAnswer{
		Question: question,
		Sources:  []string{"Normativa.pdf (Pág 1)"},
		Stream:   llm.NewSliceStream(f.fragments, nil),
	}, nil
}

// drain runs cmd and feeds every resulting message back into the model
// until no command is left.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m
}

func typeAndSend(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return drain(t, next.(Model), cmd)
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func TestModel_StreamsAnswerAndRecordsHistory(t *testing.T) {
	asker := &fakeAsker{fragments: []string{"Se solicita ", "por escrito."}}
	m := sized(New(context.Background(), asker, "Asistente US"))

	m = typeAndSend(t, m, "¿Cómo pido una devolución?")
	require.Len(t, m.log, 1)
	assert.Equal(t, "Se solicita por escrito.", m.log[0].answer.String())
	assert.True(t, m.log[0].done)
	assert.Equal(t, "Listo.", m.status)
	assert.Contains(t, m.renderLog(), "Normativa.pdf (Pág 1)")
	assert.Empty(t, m.input.Value())

	m = typeAndSend(t, m, "¿Y el plazo?")
	require.Len(t, asker.histories, 2)
	assert.Empty(t, asker.histories[0])
	require.Len(t, asker.histories[1], 2)
	assert.Equal(t, "¿Cómo pido una devolución?", asker.histories[1][0].Content)
	assert.Equal(t, "Se solicita por escrito.", asker.histories[1][1].Content)
}

func TestModel_ErrorKeepsLoopAlive(t *testing.T) {
	asker := &fakeAsker{err: errors.New("ollama unreachable")}
	m := sized(New(context.Background(), asker, "Asistente US"))

	m = typeAndSend(t, m, "¿Plazo?")
	assert.Contains(t, m.status, "ollama unreachable")
	assert.True(t, m.log[0].done)
	assert.Empty(t, m.session.History())

	asker.err = nil
	asker.fragments = []string{"Diez días."}
	m = typeAndSend(t, m, "¿Plazo?")
	assert.Len(t, m.session.History(), 2)
}

func TestModel_ExitWords(t *testing.T) {
	m := sized(New(context.Background(), &fakeAsker{}, "Asistente US"))
	m.input.SetValue("salir")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ResetConversation(t *testing.T) {
	m := sized(New(context.Background(), &fakeAsker{fragments: []string{"ok"}}, "Asistente US"))
	m = typeAndSend(t, m, "hola")
	require.Len(t, m.session.History(), 2)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = next.(Model)
	assert.Empty(t, m.session.History())
	assert.Empty(t, m.log)
}

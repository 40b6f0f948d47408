// Package tui is the terminal chat front-end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

// StreamAsker is the TUI-facing subset of the assistant.
type StreamAsker interface {
	AnswerStream(ctx context.Context, question string, history []domain.Turn) (*usecase.StreamAnswer, error)
}

// exchange is one question with its (possibly still growing) answer.
type exchange struct {
	question string
	answer   strings.Builder
	sources  []string
	err      error
	done     bool
}

// Model is the Bubble Tea model of the chat.
type Model struct {
	ctx      context.Context
	asker    StreamAsker
	session  *usecase.Session
	input    textinput.Model
	viewport viewport.Model
	log      []*exchange
	stream   port.Stream
	title    string
	status   string
	ready    bool
}

type answerStartedMsg struct {
	res *usecase.StreamAnswer
}

type fragmentMsg string

type streamDoneMsg struct {
	err error
}

type answerErrMsg struct {
	err error
}

// New creates a chat model. title is shown in the header.
func New(ctx context.Context, asker StreamAsker, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Escribe tu duda aquí (ej: ¿Cómo anulo la matrícula?)"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		asker:    asker,
		session:  usecase.NewSession(),
		input:    ti,
		viewport: viewport.New(0, 0),
		title:    title,
		status:   "Enter envía, Ctrl+C sale, Ctrl+L nueva conversación.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(question string, history []domain.Turn) tea.Cmd {
	return func() tea.Msg {
		res, err := m.asker.AnswerStream(m.ctx, question, history)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerStartedMsg{res: res}
	}
}

func next(s port.Stream) tea.Cmd {
	return func() tea.Msg {
		if s.Next() {
			return fragmentMsg(s.Fragment())
		}
		err := s.Err()
		s.Close()
		return streamDoneMsg{err: err}
	}
}

func (m Model) current() *exchange {
	if len(m.log) == 0 {
		return nil
	}
	return m.log[len(m.log)-1]
}

func (m Model) busy() bool {
	cur := m.current()
	return cur != nil && !cur.done
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 + ch
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			if m.stream != nil {
				m.stream.Close()
			}
			return m, tea.Quit
		case tea.KeyCtrlL:
			if !m.busy() {
				m.session.Reset()
				m.log = nil
				m.status = "Nueva conversación."
				m.refresh()
			}
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy() {
				return m, nil
			}
			if isExit(q) {
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.log = append(m.log, &exchange{question: q})
			m.status = "Consultando la normativa vigente..."
			m.refresh()
			return m, m.ask(q, m.session.History())
		}

	case answerStartedMsg:
		cur := m.current()
		cur.sources = msg.res.Sources
		m.stream = msg.res.Stream
		return m, next(m.stream)

	case fragmentMsg:
		m.current().answer.WriteString(string(msg))
		m.refresh()
		return m, next(m.stream)

	case streamDoneMsg:
		m.finish(msg.err)
		return m, nil

	case answerErrMsg:
		m.finish(msg.err)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// finish closes the running exchange. Failed exchanges are shown but not
// added to the conversation history.
func (m *Model) finish(err error) {
	cur := m.current()
	cur.done = true
	cur.err = err
	m.stream = nil
	if err != nil {
		m.status = "Error: " + err.Error()
	} else {
		m.session.Record(cur.question, cur.answer.String())
		m.status = "Listo."
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Cargando..."
	}
	header := headerStyle.Render(m.title)
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderLog() string {
	if len(m.log) == 0 {
		return hintStyle.Render("Pregúntame sobre matrículas, exámenes, convalidaciones o plazos.")
	}
	var sb strings.Builder
	for i, ex := range m.log {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(userStyle.Render("Tú: "))
		sb.WriteString(ex.question)
		sb.WriteString("\n")
		sb.WriteString(botStyle.Render("Asistente: "))
		sb.WriteString(ex.answer.String())
		sb.WriteString("\n")
		if ex.err != nil {
			sb.WriteString(errorStyle.Render("Error: " + ex.err.Error()))
			sb.WriteString("\n")
		}
		if ex.done && len(ex.sources) > 0 {
			sb.WriteString(hintStyle.Render("Fuentes consultadas:"))
			sb.WriteString("\n")
			for _, src := range ex.sources {
				sb.WriteString(hintStyle.Render(fmt.Sprintf("  - %s", src)))
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func isExit(s string) bool {
	switch strings.ToLower(s) {
	case "salir", "exit", "chau":
		return true
	}
	return false
}

// Run starts the full-screen chat.
func Run(ctx context.Context, asker StreamAsker, title string) error {
	_, err := tea.NewProgram(New(ctx, asker, title), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

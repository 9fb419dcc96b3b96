// Package tui provides an interactive ask session built on Bubble Tea.
// Questions are typed into a single input; answers render with their
// citations in a scrollable viewport.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/citeline/internal/core/domain"
	"github.com/custodia-labs/citeline/internal/core/ports/driving"
)

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	refusalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	citationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// answerMsg carries the outcome of an ask back into the update loop.
type answerMsg struct {
	answer domain.Answer
	err    error
}

// Model is the Bubble Tea model for the ask session.
type Model struct {
	ctx      context.Context
	asker    driving.Asker
	input    textinput.Model
	viewport viewport.Model
	status   string
	summary  string
	waiting  bool
	ready    bool
}

// New creates the ask session model. summary describes the loaded index
// and is shown under the header.
func New(ctx context.Context, asker driving.Asker, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a question and press Enter"
	ti.Focus()
	ti.CharLimit = driving.MaxQuestionChars
	vp := viewport.New(0, 0)
	vp.SetContent("No answers yet.")
	return Model{
		ctx:      ctx,
		asker:    asker,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready. Type to ask.",
	}
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, query box, spacer
		vh := msg.Height - reserved - ah
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = "Answered."
		if msg.answer.RefusalReason != domain.RefusalNone {
			m.status = "Refused: " + string(msg.answer.RefusalReason)
		}
		m.viewport.SetContent(renderAnswer(msg.answer))
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				return m, m.ask(question)
			}
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the session layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Citeline")
	summary := citationStyle.Render(m.summary)
	answers := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + answers + "\n" + input + "\n" + status
}

// ask issues the question off the update loop.
func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.asker.Ask(m.ctx, question, 0)
		return answerMsg{answer: answer, err: err}
	}
}

func renderAnswer(answer domain.Answer) string {
	var b strings.Builder
	b.WriteString(answer.Answer)

	switch answer.RefusalReason {
	case domain.RefusalInsufficientContext:
		b.WriteString("\n\n" + refusalStyle.Render("Not enough relevant context in the index."))
	case domain.RefusalModelRefused:
		b.WriteString("\n\n" + refusalStyle.Render("The model declined to answer from the context."))
	}

	if len(answer.Citations) > 0 {
		b.WriteString("\n\nCitations:")
		for i, c := range answer.Citations {
			b.WriteString(fmt.Sprintf("\n  [%d] %s (source=%s, score=%.3f)", i+1, c.ChunkID, c.SourceID, c.Score))
			if c.Quote != "" {
				b.WriteString("\n      " + citationStyle.Render(c.Quote))
			}
		}
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

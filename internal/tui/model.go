package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Initialize(ctx context.Context, session *usecase.Session, progress usecase.ProgressFunc) (*usecase.IndexResult, error)
	Ask(ctx context.Context, session *usecase.Session, question string) (domain.AnswerResult, error)
	Reset(session *usecase.Session) error
}

const helpText = "Commands: /process  /reset  /sources  /help  /quit"

type initDoneMsg struct {
	result *usecase.IndexResult
	err    error
}

type answerMsg struct {
	result domain.AnswerResult
	err    error
}

type resetDoneMsg struct {
	err error
}

// Model is the Bubble Tea model for the chat screen. The session is only
// touched by commands, one at a time; the model renders its own copy of the
// conversation.
type Model struct {
	ctx     context.Context
	service ChatPort
	session *usecase.Session

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	turns       []domain.ConversationTurn
	initialized bool
	showSources bool
	busy        bool
	ready       bool
	status      string
	dataDir     string
}

// New creates the chat model. session may already be initialized when an
// existing index was loaded before the UI started.
func New(ctx context.Context, service ChatPort, session *usecase.Session, dataDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		service:     service,
		session:     session,
		input:       ti,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		initialized: session.Initialized,
		showSources: true,
		dataDir:     dataDir,
	}
	if m.initialized {
		m.status = "Index loaded. Ask a question."
	} else {
		m.status = "No index yet. Type /process to ingest " + dataDir
	}
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + fh // header, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case initDoneMsg:
		m.busy = false
		m.status = initStatus(msg.result, msg.err, m.dataDir)
		m.initialized = msg.err == nil
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.turns = m.turns[:len(m.turns)-1]
		} else {
			m.turns = append(m.turns, domain.ConversationTurn{
				Role:    domain.RoleAssistant,
				Content: msg.result.Answer,
				Sources: msg.result.Sources,
			})
			m.status = "Ready."
		}
		m.refresh()
		return m, nil

	case resetDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.turns = nil
		m.initialized = false
		m.status = "Index deleted. Type /process to ingest again."
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles a line of input: a slash command or a question.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.busy {
		return m, nil
	}
	m.input.SetValue("")

	switch line {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/help":
		m.status = helpText
		return m, nil
	case "/sources":
		m.showSources = !m.showSources
		m.refresh()
		return m, nil
	case "/process":
		m.busy = true
		m.status = "Processing documents..."
		return m, tea.Batch(m.initCmd(), m.spinner.Tick)
	case "/reset":
		m.busy = true
		m.status = "Deleting index..."
		return m, tea.Batch(m.resetCmd(), m.spinner.Tick)
	}

	if strings.HasPrefix(line, "/") {
		m.status = fmt.Sprintf("Unknown command %s. %s", line, helpText)
		return m, nil
	}
	if !m.initialized {
		m.status = "Please process documents first (/process)."
		return m, nil
	}

	m.turns = append(m.turns, domain.ConversationTurn{Role: domain.RoleUser, Content: line})
	m.busy = true
	m.status = "Thinking..."
	m.refresh()
	return m, tea.Batch(m.askCmd(line), m.spinner.Tick)
}

func (m Model) initCmd() tea.Cmd {
	ctx, service, session := m.ctx, m.service, m.session
	return func() tea.Msg {
		result, err := service.Initialize(ctx, session, nil)
		return initDoneMsg{result: result, err: err}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	ctx, service, session := m.ctx, m.service, m.session
	return func() tea.Msg {
		result, err := service.Ask(ctx, session, question)
		return answerMsg{result: result, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	service, session := m.service, m.session
	return func() tea.Msg {
		return resetDoneMsg{err: service.Reset(session)}
	}
}

func initStatus(result *usecase.IndexResult, err error, dataDir string) string {
	switch {
	case errors.Is(err, domain.ErrNoDocuments):
		return "No documents were processed. Add PDF or TXT files to " + dataDir
	case err != nil:
		return "Error: " + err.Error()
	case result == nil:
		return "Index loaded. Ask a question."
	}
	status := fmt.Sprintf("Processed %d documents into %d chunks.", result.DocumentsLoaded, result.ChunksCreated)
	if n := len(result.Errors); n > 0 {
		status += fmt.Sprintf(" %d files skipped.", n)
	}
	return status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return hintStyle.Render("No messages yet. " + helpText)
	}
	width := max(20, m.viewport.Width)
	var b strings.Builder
	for i, turn := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if turn.Role == domain.RoleUser {
			b.WriteString(userStyle.Render("You"))
		} else {
			b.WriteString(assistantStyle.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(turn.Content))
		if m.showSources && len(turn.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(sourceStyle.Render("Sources: " + strings.Join(turn.Sources, ", ")))
		}
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Document Q&A")
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	assistantStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

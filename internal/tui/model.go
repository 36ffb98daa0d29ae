// Package tui es la superficie de render en terminal: muestra el timeline de la
// entrevista con efecto de tipeo y captura las respuestas del candidato.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
	"mock-interviewer/internal/interview"
)

const summaryCommand = "/summary"

// Driver es lo que la superficie necesita del controlador de la entrevista.
type Driver interface {
	BeginInterview(ctx context.Context) error
	SubmitAnswer(ctx context.Context, text string) error
	SetDraft(text string)
	RequestSummary(ctx context.Context) error
	SkipReveal()
	View() domain.View
}

// Messages for tea updates
type (
	viewMsg   domain.View
	actionMsg struct {
		op  string
		err error
	}
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	interviewerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	candidateStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle        = lipgloss.NewStyle().Faint(true)
)

// Model es el modelo de bubbletea de la entrevista.
type Model struct {
	ctx    context.Context
	driver Driver
	logger *zap.Logger
	title  string

	view     domain.View
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	ready  bool
	width  int
	height int
}

// New crea el modelo. La entrevista arranca en Init.
func New(ctx context.Context, driver Driver, title string, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ti := textinput.New()
	ti.Placeholder = "Type your answer and press Enter"
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		driver:  driver,
		logger:  logger,
		title:   title,
		input:   ti,
		spinner: sp,
	}
}

// Run monta la superficie sobre el controlador y bloquea hasta que el usuario sale.
func Run(ctx context.Context, ctrl *interview.Controller, title string, logger *zap.Logger, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, ctrl, title, logger), opts...)
	ctrl.Subscribe(func(v domain.View) { p.Send(viewMsg(v)) })
	defer ctrl.Subscribe(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init arranca la entrevista.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.begin(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlS:
			return m, m.summary()
		case tea.KeyEnter:
			return m.handleSubmit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.revealing() {
			cmds = append(cmds, m.skip())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.driver.SetDraft(m.input.Value())
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4

		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(msg.Width-4),
		)
		if err != nil {
			m.logger.Warn("summary renderer init failed", zap.Error(err))
		} else {
			m.renderer = renderer
		}
		m.refresh()

	case viewMsg:
		m.view = domain.View(msg)
		m.refresh()

	case actionMsg:
		if msg.err != nil {
			m.logger.Debug("interview action finished with error", zap.String("op", msg.op), zap.Error(msg.err))
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.view.Busy {
		return m, nil
	}
	m.input.Reset()
	m.driver.SetDraft("")
	if strings.EqualFold(strings.TrimSpace(text), summaryCommand) {
		return m, m.summary()
	}
	return m, m.submit(text)
}

// revealing indica si el último mensaje todavía se está tipeando.
func (m Model) revealing() bool {
	for _, msg := range m.view.Messages {
		if !msg.Complete {
			return true
		}
	}
	return false
}

// Las acciones del controlador publican vistas con p.Send, así que corren en
// comandos y nunca dentro de Update.

func (m Model) begin() tea.Cmd {
	return func() tea.Msg {
		return actionMsg{op: "begin", err: m.driver.BeginInterview(m.ctx)}
	}
}

// submit envía el texto tal como estaba al presionar Enter; lo que se tipee
// después queda en el input para la próxima respuesta.
func (m Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{op: "submit", err: m.driver.SubmitAnswer(m.ctx, text)}
	}
}

func (m Model) summary() tea.Cmd {
	return func() tea.Msg {
		return actionMsg{op: "summary", err: m.driver.RequestSummary(m.ctx)}
	}
}

func (m Model) skip() tea.Cmd {
	return func() tea.Msg {
		m.driver.SkipReveal()
		return nil
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTimeline())
	m.viewport.GotoBottom()
}

func (m Model) renderTimeline() string {
	var b strings.Builder
	for _, msg := range m.view.Messages {
		switch msg.Kind {
		case domain.KindNotice:
			b.WriteString(noticeStyle.Render("! " + msg.Revealed))
		case domain.KindSummary:
			b.WriteString(interviewerStyle.Render("Performance Summary"))
			b.WriteString("\n")
			b.WriteString(m.renderSummary(msg.Revealed))
		default:
			if msg.Speaker == domain.SpeakerCandidate {
				b.WriteString(candidateStyle.Render("You: "))
			} else {
				b.WriteString(interviewerStyle.Render("Interviewer: "))
			}
			b.WriteString(msg.Revealed)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderSummary(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "Connecting to the interviewer..."
	}

	var status string
	switch {
	case m.view.Busy && m.view.State == domain.StateAwaitingFirstQuestion:
		status = m.spinner.View() + " Starting the interview..."
	case m.view.Busy && m.view.SummaryState == domain.SummaryRequested:
		status = m.spinner.View() + " Preparing your summary..."
	case m.view.Busy:
		status = m.spinner.View() + " The interviewer is thinking..."
	case m.view.State == domain.StateClosed:
		status = "The interview is over. Press Ctrl+S for your summary."
	}

	return strings.Join([]string{
		headerStyle.Render(m.title),
		"",
		m.viewport.View(),
		status,
		m.input.View(),
		helpStyle.Render("Enter: send  Ctrl+S: summary  Esc: quit"),
	}, "\n")
}

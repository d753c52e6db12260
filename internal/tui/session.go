// Package tui renders a running heartcheck session in the terminal.
package tui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-heartcheck/core/answers"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/session"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"
)

const (
	KeyCtrlC = "ctrl+c"
	KeyQuit  = "q"
	KeySkip  = "s"
	KeyYes   = "y"
	KeyNo    = "n"

	defaultWidth = 80
)

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type sessionEventMsg struct{ event events.Event }

type sessionClosedMsg struct{}

type startResultMsg struct{ err error }

type actionResultMsg struct {
	key string
	err error
}

type answerLine struct {
	field  string
	value  string
	status string
}

// SessionModel shows the phase, the current question, the last transcript
// and the answers collected so far.
type SessionModel struct {
	controller  *session.Controller
	events      <-chan events.Event
	unsubscribe func()
	spinner     spinner.Model

	phase        session.Phase
	index        int
	prompt       string
	transcript   string
	userSpeaking bool
	pendingSkip  bool
	notice       string
	answers      []answerLine
	result       *answers.Answers
	err          error
	closed       bool
	width        int
}

// NewSessionModel subscribes to the controller. The session is started by
// the model's Init.
func NewSessionModel(controller *session.Controller) *SessionModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = WarningStyle

	stream, unsubscribe := controller.Subscribe(64)
	return &SessionModel{
		controller:  controller,
		events:      stream,
		unsubscribe: unsubscribe,
		spinner:     sp,
		phase:       controller.Phase(),
		width:       defaultWidth,
	}
}

// Run starts the program in the alternate screen and returns the finalized
// answers if the session completed.
func Run(model *SessionModel) (*answers.Answers, error) {
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	model.unsubscribe()
	model.controller.Stop()
	if err != nil {
		return nil, err
	}
	if model.err != nil {
		return nil, model.err
	}
	return model.result, nil
}

func (m *SessionModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), m.start())
}

func (m *SessionModel) start() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		return startResultMsg{err: controller.Start(context.Background())}
	}
}

func (m *SessionModel) waitForEvent() tea.Cmd {
	stream := m.events
	return func() tea.Msg {
		event, ok := <-stream
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg{event: event}
	}
}

func (m *SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionEventMsg:
		m.apply(msg.event)
		return m, m.waitForEvent()

	case sessionClosedMsg:
		m.closed = true
		m.phase = m.controller.Phase()
		return m, nil

	case startResultMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		if msg.key == KeyYes || msg.key == KeyNo {
			m.pendingSkip = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}
	return m, nil
}

// handleKey never calls the controller directly: a controller call waits for
// the session loop, which may be waiting for this model to read events.
// Run stops the session once the program has quit.
func (m *SessionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	key := msg.String()
	switch key {
	case KeyCtrlC, KeyQuit:
		return m, tea.Quit
	case KeySkip:
		return m, m.action(key, m.controller.Skip)
	case KeyYes:
		return m, m.action(key, m.controller.ConfirmSkip)
	case KeyNo:
		return m, m.action(key, m.controller.CancelSkip)
	}
	return m, nil
}

func (m *SessionModel) action(key string, call func() error) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{key: key, err: call()}
	}
}

func (m *SessionModel) apply(event events.Event) {
	switch e := event.(type) {
	case events.SessionStateChanged:
		m.phase = session.Phase(e.To)
	case events.QuestionAsked:
		m.index = e.Index
		m.prompt = e.Prompt
		m.pendingSkip = false
	case events.UserSpeechStarted:
		m.userSpeaking = true
	case events.UserSpeechEnded:
		m.userSpeaking = false
	case events.UserTranscriptFinal:
		m.transcript = e.Transcript
	case events.AnswerRecorded:
		m.answers = append(m.answers, answerLine{field: e.Field, value: formatValue(e.Value), status: "answered"})
	case events.AnswerSkipped:
		if e.Field != "" {
			status := "skipped"
			if e.Flagged {
				status = "flagged"
			}
			m.answers = append(m.answers, answerLine{field: e.Field, value: "-", status: status})
		}
	case events.AnswerRejected:
		m.notice = fmt.Sprintf("Did not understand %q (%s)", e.Transcript, e.Reason)
	case events.SkipConfirmationRequested:
		m.pendingSkip = true
	case events.SessionCompleted:
		result := e.Answers
		m.result = &result
	case events.SessionFailed:
		m.err = e.Err
	}
}

func (m *SessionModel) View() string {
	width := m.width - 8
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("heartcheck"))
	b.WriteString("  ")
	b.WriteString(PhaseStyle.Render(string(m.phase)))
	if !m.phase.Terminal() && m.phase != session.PhaseIdle {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if m.prompt != "" {
		total := m.controller.Script().Len()
		b.WriteString(DimStyle.Render(fmt.Sprintf("Question %d of %d", m.index+1, total)))
		b.WriteString("\n")
		b.WriteString(wordwrap.String(m.prompt, width))
		b.WriteString("\n\n")
	}

	if m.userSpeaking {
		b.WriteString(WarningStyle.Render("listening..."))
		b.WriteString("\n")
	}
	if m.transcript != "" {
		b.WriteString(DimStyle.Render("You said: "))
		b.WriteString(wordwrap.String(m.transcript, width))
		b.WriteString("\n")
	}

	if len(m.answers) > 0 {
		b.WriteString("\n")
		for _, line := range m.answers {
			style := SuccessStyle
			if line.status != "answered" {
				style = WarningStyle
			}
			b.WriteString(fmt.Sprintf("  %-18s %s\n", line.field, style.Render(line.value+" "+DimStyle.Render(line.status))))
		}
	}

	if m.pendingSkip {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("Skip this question? y/n"))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(DimStyle.Render(wordwrap.String(m.notice, width)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(wordwrap.String("Error: "+m.err.Error(), width)))
		b.WriteString("\n")
	}
	if m.result != nil {
		b.WriteString("\n")
		b.WriteString(SuccessStyle.Render("Assessment complete."))
		b.WriteString("\n")
	}

	help := "s skip • q quit"
	if m.closed || m.phase.Terminal() {
		help = "q quit"
	}
	b.WriteString(HelpStyle.Render(help))

	return BoxStyle.Render(b.String())
}

// Describe renders an event as a single log line for non-interactive runs.
// Events without a useful description report false.
func Describe(event events.Event) (string, bool) {
	switch e := event.(type) {
	case events.SessionStateChanged:
		return fmt.Sprintf("state: %s -> %s", e.From, e.To), true
	case events.QuestionAsked:
		if e.Retry {
			return fmt.Sprintf("agent (retry %d): %s", e.Index, e.Prompt), true
		}
		return fmt.Sprintf("agent (%d): %s", e.Index, e.Prompt), true
	case events.UserTranscriptFinal:
		return "you: " + e.Transcript, true
	case events.AnswerRecorded:
		return fmt.Sprintf("recorded %s = %s", e.Field, formatValue(e.Value)), true
	case events.AnswerRejected:
		return fmt.Sprintf("rejected %q: %s (attempt %d)", e.Transcript, e.Reason, e.Attempt), true
	case events.AnswerSkipped:
		if e.Flagged {
			return fmt.Sprintf("skipped %s after too many attempts", e.Field), true
		}
		return fmt.Sprintf("skipped %s", e.Field), true
	case events.SessionFailed:
		return "failed: " + e.Err.Error(), true
	}
	return "", false
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

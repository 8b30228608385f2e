// Package tui provides the Bubble Tea terminal client for taking a quiz.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/clock"
	"proctor-quiz-service/internal/domain"
	"proctor-quiz-service/internal/validator"
)

type screen int

const (
	screenLogin screen = iota
	screenVerify
	screenPhoto
	screenQuiz
	screenResults
	screenFeedback
	screenDone
)

// terminalPhoto stands in for the identity photo; terminals have no camera.
const terminalPhoto = "terminal:no-camera"

type snapshotMsg domain.SessionSnapshot

type sessionClosedMsg struct{}

// Model walks one participant through the attempt flow inside the terminal.
// Losing terminal focus counts as leaving the quiz.
type Model struct {
	ctx     context.Context
	service *app.QuizService
	clock   clock.Clock
	log     zerolog.Logger

	width  int
	height int

	screen  screen
	input   textinput.Model
	comment textinput.Model
	notice  string

	attempt  domain.Attempt
	events   *app.Dispatcher
	session  *app.Session
	updates  <-chan domain.SessionSnapshot
	cancel   func()
	snap     domain.SessionSnapshot
	leaving  bool
	report   domain.Report
	rating   int
	feedback domain.Feedback
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	warningBanner = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#CF1322")).
		Padding(0, 1)
	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B4261")).
		Padding(1, 2)
	urgencyStyles = map[domain.Urgency]lipgloss.Style{
		domain.UrgencyNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")),
		domain.UrgencyWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14")),
		domain.UrgencyCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true),
	}
)

// NewModel constructs the terminal client around an in-process service.
func NewModel(ctx context.Context, service *app.QuizService, log zerolog.Logger) *Model {
	m := &Model{
		ctx:     ctx,
		service: service,
		clock:   clock.Real(),
		log:     log.With().Str("component", "tui").Logger(),
	}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.screen = screenLogin
	m.input = newInput("Name: ", "Jane Doe", 80)
	m.input.Focus()
	m.comment = newInput("Comment: ", "optional", 2000)
	m.notice = ""
	m.attempt = domain.Attempt{}
	m.session = nil
	m.updates = nil
	m.cancel = nil
	m.snap = domain.SessionSnapshot{}
	m.leaving = false
	m.report = domain.Report{}
	m.rating = 0
	m.feedback = domain.Feedback{}
}

func newInput(prompt, placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = limit
	return input
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.BlurMsg:
		if m.screen == screenQuiz {
			m.events.Dispatch(app.SignalVisibilityHidden)
		}
		return m, nil
	case tea.FocusMsg:
		return m, nil
	case snapshotMsg:
		return m, m.applySnapshot(domain.SessionSnapshot(msg))
	case sessionClosedMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.handleInterrupt()
		}
		if m.leaving {
			return m, m.confirmLeave(msg)
		}
		switch m.screen {
		case screenLogin:
			return m, m.updateLogin(msg)
		case screenVerify:
			return m, m.updateVerify(msg)
		case screenPhoto:
			return m, m.updatePhoto(msg)
		case screenQuiz:
			m.updateQuiz(msg)
			return m, nil
		case screenResults:
			return m, m.updateResults(msg)
		case screenFeedback:
			return m, m.updateFeedback(msg)
		case screenDone:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) updateLogin(msg tea.KeyMsg) tea.Cmd {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	attempt, err := m.service.Login(m.ctx, app.LoginRequest{Name: m.input.Value()})
	if err != nil {
		m.notice = describe(err)
		return nil
	}
	m.attempt = attempt
	m.screen = screenVerify
	m.notice = ""
	m.input = newInput("Passkey: ", "6 digits", 6)
	m.input.Focus()
	return nil
}

func (m *Model) updateVerify(msg tea.KeyMsg) tea.Cmd {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	attempt, err := m.service.VerifyPasskey(m.ctx, m.attempt.ID, app.PasskeyRequest{Passkey: strings.TrimSpace(m.input.Value())})
	if err != nil {
		m.notice = describe(err)
		m.input.SetValue("")
		return nil
	}
	m.attempt = attempt
	m.screen = screenPhoto
	m.notice = ""
	m.input.Blur()
	return nil
}

func (m *Model) updatePhoto(msg tea.KeyMsg) tea.Cmd {
	if msg.Type != tea.KeyEnter {
		return nil
	}
	attempt, err := m.service.CapturePhoto(m.ctx, m.attempt.ID, app.PhotoRequest{Photo: terminalPhoto})
	if err != nil {
		m.notice = describe(err)
		return nil
	}
	m.attempt = attempt
	return m.startQuiz()
}

func (m *Model) startQuiz() tea.Cmd {
	m.events = app.NewDispatcher()
	session, err := m.service.StartQuiz(m.ctx, m.attempt.ID, app.SessionEnv{
		Events: m.events,
		Clock:  m.clock,
	})
	if err != nil {
		m.notice = describe(err)
		return nil
	}
	m.session = session
	m.updates, m.cancel = session.Subscribe()
	m.screen = screenQuiz
	m.notice = ""
	return m.nextSnapshot()
}

func (m *Model) nextSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return sessionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) applySnapshot(snap domain.SessionSnapshot) tea.Cmd {
	if m.screen != screenQuiz {
		return nil
	}
	m.snap = snap
	if snap.State != domain.StateSubmitted {
		return m.nextSnapshot()
	}

	m.stopListening()
	report, err := m.service.Results(m.ctx, m.attempt.ID)
	if err != nil {
		m.log.Error().Err(err).Str("attempt_id", m.attempt.ID).Msg("results unavailable after submission")
		m.notice = describe(err)
		return nil
	}
	m.report = report
	m.leaving = false
	m.screen = screenResults
	return nil
}

func (m *Model) updateQuiz(msg tea.KeyMsg) {
	if m.session == nil {
		return
	}
	switch key := msg.String(); key {
	case "a", "b", "c", "d", "A", "B", "C", "D":
		opt, err := domain.ParseOption(key)
		if err == nil {
			m.session.SelectAnswer(opt)
		}
	case "1", "2", "3", "4":
		m.session.SelectAnswer(domain.Options[key[0]-'1'])
	case "right", "l", "n":
		m.session.Next()
	case "left", "h", "p":
		m.session.Previous()
	case "home":
		m.session.GoTo(0)
	case "end":
		m.session.GoTo(m.snap.Total - 1)
	case "s", "enter":
		m.session.Submit()
	}
}

// handleInterrupt treats ctrl+c like closing the browser tab: during the quiz
// the participant is asked to confirm before leaving.
func (m *Model) handleInterrupt() tea.Cmd {
	if m.screen != screenQuiz || m.session == nil {
		return tea.Quit
	}
	if m.leaving {
		return m.leave()
	}
	if verdict := m.events.Dispatch(app.SignalNavigateAway); verdict.ConfirmLeave {
		m.leaving = true
		return nil
	}
	return m.leave()
}

func (m *Model) confirmLeave(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		return m.leave()
	}
	m.leaving = false
	return nil
}

func (m *Model) leave() tea.Cmd {
	m.stopListening()
	if m.attempt.ID != "" {
		m.service.EndSession(m.attempt.ID)
	}
	return tea.Quit
}

func (m *Model) stopListening() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) updateResults(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "f":
		m.screen = screenFeedback
		m.comment.Focus()
	case "r":
		if err := m.service.Retake(m.ctx, m.attempt.ID); err != nil && !errors.Is(err, domain.ErrAttemptNotFound) {
			m.notice = describe(err)
			return nil
		}
		m.reset()
		return textinput.Blink
	case "q", "esc":
		return tea.Quit
	}
	return nil
}

func (m *Model) updateFeedback(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenResults
		m.comment.Blur()
		return nil
	case tea.KeyUp, tea.KeyRight:
		if m.rating < 5 {
			m.rating++
		}
		return nil
	case tea.KeyDown, tea.KeyLeft:
		if m.rating > 1 {
			m.rating--
		}
		return nil
	case tea.KeyEnter:
		feedback, err := m.service.SubmitFeedback(m.ctx, m.attempt.ID, app.FeedbackRequest{
			Rating:  m.rating,
			Comment: m.comment.Value(),
		})
		if err != nil {
			m.notice = describe(err)
			return nil
		}
		m.feedback = feedback
		m.notice = ""
		m.screen = screenDone
		return nil
	}
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '5' && m.comment.Value() == "" {
		m.rating = int(s[0] - '0')
		return nil
	}
	var cmd tea.Cmd
	m.comment, cmd = m.comment.Update(msg)
	return cmd
}

func describe(err error) string {
	var fields validator.FieldErrors
	if errors.As(err, &fields) {
		return fields.Error()
	}
	return err.Error()
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin()
	case screenVerify:
		body = m.viewVerify()
	case screenPhoto:
		body = m.viewPhoto()
	case screenQuiz:
		body = m.viewQuiz()
	case screenResults:
		body = m.viewResults()
	case screenFeedback:
		body = m.viewFeedback()
	case screenDone:
		body = m.viewDone()
	}
	if m.notice != "" {
		body += "\n\n" + errorStyle.Render(m.notice)
	}
	content := panelStyle.Render(body)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewLogin() string {
	return titleStyle.Render("Proctored Quiz") + "\n\n" +
		"Enter your name to begin.\n\n" +
		m.input.View() + "\n\n" +
		mutedStyle.Render("enter: continue  ctrl+c: quit")
}

func (m *Model) viewVerify() string {
	return titleStyle.Render("Verification") + "\n\n" +
		fmt.Sprintf("Hello %s. Your passkey is %s\n", m.attempt.UserName, selectedStyle.Render(m.attempt.Passkey)) +
		"Type it below to confirm.\n\n" +
		m.input.View()
}

func (m *Model) viewPhoto() string {
	return titleStyle.Render("Identity photo") + "\n\n" +
		"This terminal has no camera, so no photo or live monitoring is available.\n" +
		"Leaving this window during the quiz submits it automatically.\n\n" +
		mutedStyle.Render("enter: start the quiz")
}

func (m *Model) viewQuiz() string {
	snap := m.snap
	if snap.Total == 0 {
		return "Starting quiz..."
	}
	var b strings.Builder

	clockStyle := urgencyStyles[snap.Urgency]
	fmt.Fprintf(&b, "%s  %s  %s\n",
		titleStyle.Render(fmt.Sprintf("Question %d of %d", snap.CurrentIndex+1, snap.Total)),
		mutedStyle.Render(fmt.Sprintf("%d answered", snap.Answered)),
		clockStyle.Render(snap.Clock))
	if snap.State == domain.StateWarningShown {
		b.WriteString("\n" + warningBanner.Render("Violation detected. Your quiz is being submitted.") + "\n")
	}
	if snap.Advisory != "" {
		b.WriteString(mutedStyle.Render(snap.Advisory) + "\n")
	}

	q := snap.Question
	fmt.Fprintf(&b, "\n%s\n%s\n\n", mutedStyle.Render(q.Category), q.QuestionText)
	for _, opt := range domain.Options {
		line := fmt.Sprintf("  %s. %s", opt, optionText(q, opt))
		if snap.Selected == opt {
			line = selectedStyle.Render("> " + line[2:])
		}
		b.WriteString(line + "\n")
	}

	if snap.ViolationCount > 0 {
		fmt.Fprintf(&b, "\n%s\n", errorStyle.Render(fmt.Sprintf("Violations: %d", snap.ViolationCount)))
		for _, v := range snap.RecentViolations {
			b.WriteString(mutedStyle.Render("  - "+v) + "\n")
		}
	}
	if m.leaving {
		b.WriteString("\n" + warningBanner.Render("Leave the quiz? Your answers will be lost. (y/n)") + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("a-d: answer  left/right: navigate  s: submit  ctrl+c: leave"))
	return b.String()
}

func optionText(q domain.PublicQuestion, opt domain.Option) string {
	switch opt {
	case domain.OptionA:
		return q.OptionA
	case domain.OptionB:
		return q.OptionB
	case domain.OptionC:
		return q.OptionC
	case domain.OptionD:
		return q.OptionD
	}
	return ""
}

func (m *Model) viewResults() string {
	r := m.report
	var b strings.Builder
	b.WriteString(titleStyle.Render("Results") + "\n\n")
	verdict := errorStyle.Render("Not passed")
	if r.Passed {
		verdict = passStyle.Render("Passed")
	}
	fmt.Fprintf(&b, "Score: %d / %d (%d%%)  %s\n", r.Score, r.Total, r.Percentage, verdict)
	fmt.Fprintf(&b, "Time taken: %s\n", r.ElapsedText)
	if len(r.Violations) > 0 {
		b.WriteString("\n" + errorStyle.Render("Violations") + "\n")
		for _, v := range r.Violations {
			b.WriteString("  - " + v + "\n")
		}
	}
	b.WriteString("\n")
	for i, o := range r.Breakdown {
		mark := errorStyle.Render("x")
		if o.Correct {
			mark = passStyle.Render("v")
		}
		selected := string(o.SelectedAnswer)
		if selected == "" {
			selected = "-"
		}
		fmt.Fprintf(&b, "%s %2d. %s  (yours %s, correct %s)\n", mark, i+1, o.Category, selected, o.CorrectAnswer)
	}
	b.WriteString("\n" + mutedStyle.Render("f: feedback  r: retake  q: quit"))
	return b.String()
}

func (m *Model) viewFeedback() string {
	stars := strings.Repeat("*", m.rating) + strings.Repeat(".", 5-m.rating)
	label := domain.FeedbackLabel(m.rating)
	return titleStyle.Render("Feedback") + "\n\n" +
		fmt.Sprintf("Rating: %s  %s\n\n", selectedStyle.Render(stars), mutedStyle.Render(label)) +
		m.comment.View() + "\n\n" +
		mutedStyle.Render("1-5 or up/down: rate  enter: send  esc: back")
}

func (m *Model) viewDone() string {
	return titleStyle.Render("Thank you!") + "\n\n" +
		m.feedback.Label + "\n\n" +
		mutedStyle.Render("press any key to exit")
}

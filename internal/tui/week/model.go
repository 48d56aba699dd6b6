// Package week is the terminal front end of the 7-day launchpad.
package week

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/repurpose/internal/launchpad"
	"github.com/alkime/repurpose/internal/tui/components/labeledspinner"
	"github.com/alkime/repurpose/pkg/uictl"
)

// Input fields of the inputs screen, in tab order.
const (
	fieldNiche = iota
	fieldGoal
	fieldStyle
	fieldTime
	fieldPlatforms
	fieldCount
)

// opDoneMsg carries the session produced by a background engine call.
type opDoneMsg struct {
	session *launchpad.Session
	err     error
}

// savedMsg reports where the content pack was written.
type savedMsg struct {
	path string
	err  error
}

// revealDial exposes the reveal counter as a capped dial.
type revealDial struct {
	session func() *launchpad.Session
}

func (d revealDial) Read() int {
	n, _ := d.session().Progress()
	return n
}

func (d revealDial) Cap() (int, int) {
	return d.session().Progress()
}

// Config holds what the launchpad screens need.
type Config struct {
	Engine    *launchpad.Engine
	Session   *launchpad.Session
	OutputDir string
	Cancel    context.CancelFunc
}

// Model drives a launchpad session from the terminal.
type Model struct {
	ctx    context.Context
	config Config
	keys   KeyMap

	session *launchpad.Session
	input   textinput.Model

	// inputs screen
	field       int
	choice      [fieldCount]int
	platformPos int
	platforms   []string

	// list screens
	cursor int

	busy     bool
	spinner  labeledspinner.Model
	progress progress.Model
	reveal   uictl.CappedDial[int]

	err      error
	saved    string
	quitting bool
}

// New creates the launchpad model for the given session.
func New(ctx context.Context, config Config) *Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 60

	m := &Model{
		ctx:       ctx,
		config:    config,
		keys:      DefaultKeyMap(),
		session:   config.Session,
		input:     ti,
		platforms: slices.Clone(launchpad.DefaultChosen),
		spinner:   labeledspinner.New(spinner.Dot, "", ""),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
	m.reveal = revealDial{session: func() *launchpad.Session { return m.session }}
	m.focusInput()

	return m
}

// Session returns the current session state.
func (m *Model) Session() *launchpad.Session {
	return m.session
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case opDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			slog.Error("Launchpad step failed", "screen", m.session.Screen, "error", msg.err)

			return m, nil
		}

		m.apply(msg.session)

		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.saved = msg.path

		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.typing() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(teaMsg)

		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) || (key.Matches(msg, m.keys.Quit) && (!m.typing() || msg.Type == tea.KeyEsc)) {
		m.quitting = true
		if m.config.Cancel != nil {
			m.config.Cancel()
		}

		return m, tea.Quit
	}

	if m.busy {
		return m, nil
	}

	switch m.session.Screen {
	case launchpad.ScreenWelcome:
		return m.updateWelcome(msg)
	case launchpad.ScreenInputs:
		return m.updateInputs(msg)
	case launchpad.ScreenChooseTopic:
		return m.updateChooseTopic(msg)
	case launchpad.ScreenRelevance:
		return m.updateRelevance(msg)
	case launchpad.ScreenTopicOptions:
		return m.updateTopicOptions(msg)
	case launchpad.ScreenDays:
		return m.updateDays(msg)
	case launchpad.ScreenExecutionDocs:
		return m.updateDocs(msg)
	}

	return m, nil
}

func (m *Model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, m.step(func(s *launchpad.Session) error { return m.config.Engine.Begin(s, false) })
	case key.Matches(msg, m.keys.Guide):
		return m, m.step(func(s *launchpad.Session) error { return m.config.Engine.Begin(s, true) })
	}

	return m, nil
}

func (m *Model) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		in := m.inputs()
		return m, m.step(func(s *launchpad.Session) error { return m.config.Engine.SubmitInputs(s, in) })

	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.Down):
		m.field = (m.field + 1) % fieldCount
		m.focusInput()

		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.field = (m.field + fieldCount - 1) % fieldCount
		m.focusInput()

		return m, nil
	}

	if m.field == fieldNiche {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		return m, cmd
	}

	if m.field == fieldPlatforms {
		switch {
		case key.Matches(msg, m.keys.Left):
			m.platformPos = (m.platformPos + len(launchpad.Platforms) - 1) % len(launchpad.Platforms)
		case key.Matches(msg, m.keys.Right):
			m.platformPos = (m.platformPos + 1) % len(launchpad.Platforms)
		case key.Matches(msg, m.keys.Toggle):
			m.togglePlatform(launchpad.Platforms[m.platformPos])
		}

		return m, nil
	}

	options := fieldOptions(m.field)
	switch {
	case key.Matches(msg, m.keys.Left):
		m.choice[m.field] = (m.choice[m.field] + len(options) - 1) % len(options)
	case key.Matches(msg, m.keys.Right):
		m.choice[m.field] = (m.choice[m.field] + 1) % len(options)
	}

	return m, nil
}

func (m *Model) updateChooseTopic(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm) {
		topic := strings.TrimSpace(m.input.Value())
		if topic == "" {
			return m, m.background("Finding 3 topic options...", func(ctx context.Context, s *launchpad.Session) error {
				return m.config.Engine.SuggestTopics(ctx, s)
			})
		}

		return m, m.background("Checking your topic...", func(ctx context.Context, s *launchpad.Session) error {
			return m.config.Engine.CheckTopic(ctx, s, topic)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m *Model) updateRelevance(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Keep):
		return m, m.step(m.config.Engine.KeepTopic)
	case key.Matches(msg, m.keys.Suggest):
		return m, m.background("Finding 3 topic options...", m.config.Engine.SuggestTopics)
	case key.Matches(msg, m.keys.Restart):
		return m, m.step(m.config.Engine.Restart)
	}

	return m, nil
}

func (m *Model) updateTopicOptions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(m.session.Options)-1)
	case key.Matches(msg, m.keys.Confirm):
		index := m.cursor
		return m, m.background("Planning and writing your week...", func(ctx context.Context, s *launchpad.Session) error {
			return m.config.Engine.Select(ctx, s, index)
		})
	case key.Matches(msg, m.keys.Regenerate):
		return m, m.background("Finding 3 fresh topic options...", m.config.Engine.Regenerate)
	case key.Matches(msg, m.keys.Restart):
		return m, m.step(m.config.Engine.Restart)
	}

	return m, nil
}

func (m *Model) updateDays(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Reveal):
		return m, m.step(func(s *launchpad.Session) error {
			_, err := m.config.Engine.RevealNext(s)
			return err
		})
	case key.Matches(msg, m.keys.Docs):
		return m, m.background("Building your execution docs...", m.config.Engine.BuildDocs)
	case key.Matches(msg, m.keys.Restart):
		return m, m.step(m.config.Engine.Restart)
	}

	return m, nil
}

func (m *Model) updateDocs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Restart):
		return m, m.step(m.config.Engine.Restart)
	}

	return m, nil
}

// step runs a synchronous engine call on a copy of the session and keeps
// the copy only when the call succeeds.
func (m *Model) step(op func(*launchpad.Session) error) tea.Cmd {
	next := *m.session
	if err := op(&next); err != nil {
		m.err = err
		return nil
	}

	m.apply(&next)

	return nil
}

// background runs a generating engine call off the UI goroutine.
func (m *Model) background(label string, op func(context.Context, *launchpad.Session) error) tea.Cmd {
	m.busy = true
	m.err = nil
	m.spinner.Title = label
	m.spinner.Subtitle = "This can take up to a minute."

	next := *m.session
	ctx := m.ctx

	var tick tea.Cmd
	m.spinner, tick = m.spinner.Start()

	return tea.Batch(
		tick,
		func() tea.Msg {
			if err := op(ctx, &next); err != nil {
				return opDoneMsg{err: err}
			}

			return opDoneMsg{session: &next}
		},
	)
}

func (m *Model) apply(next *launchpad.Session) {
	screenChanged := next.Screen != m.session.Screen || next.PlanCount != m.session.PlanCount
	m.session = next
	m.err = nil

	if screenChanged {
		m.cursor = 0
		m.saved = ""
		m.field = fieldNiche
		m.input.Reset()
		m.focusInput()
	}
}

func (m *Model) saveCmd() tea.Cmd {
	body, err := m.session.Export()
	if err != nil {
		m.err = err
		return nil
	}

	path := filepath.Join(m.config.OutputDir, m.session.Filename())

	return func() tea.Msg {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return savedMsg{err: fmt.Errorf("failed to create output directory: %w", err)}
		}

		//nolint:gosec // Content packs need to be readable
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return savedMsg{err: fmt.Errorf("failed to write content pack: %w", err)}
		}

		return savedMsg{path: path}
	}
}

// typing reports whether keystrokes belong to the text input.
func (m *Model) typing() bool {
	switch m.session.Screen {
	case launchpad.ScreenInputs:
		return m.field == fieldNiche
	case launchpad.ScreenChooseTopic:
		return true
	default:
		return false
	}
}

func (m *Model) focusInput() {
	switch {
	case m.session.Screen == launchpad.ScreenInputs && m.field == fieldNiche:
		m.input.Placeholder = "e.g. personal finance for nurses"
		m.input.Focus()
	case m.session.Screen == launchpad.ScreenChooseTopic:
		m.input.Placeholder = "your topic, or leave blank for 3 suggestions"
		m.input.Focus()
	default:
		m.input.Blur()
	}
}

func (m *Model) inputs() launchpad.Inputs {
	return launchpad.Inputs{
		Niche:      m.input.Value(),
		Goal:       launchpad.Goals[m.choice[fieldGoal]],
		Style:      launchpad.Styles[m.choice[fieldStyle]],
		TimePerDay: launchpad.TimesPerDay[m.choice[fieldTime]],
		Platforms:  slices.Clone(m.platforms),
	}
}

func (m *Model) togglePlatform(p string) {
	if i := slices.Index(m.platforms, p); i >= 0 {
		m.platforms = slices.Delete(m.platforms, i, i+1)
		return
	}

	m.platforms = append(m.platforms, p)
}

func fieldOptions(field int) []string {
	switch field {
	case fieldGoal:
		return launchpad.Goals
	case fieldStyle:
		return launchpad.Styles
	case fieldTime:
		return launchpad.TimesPerDay
	case fieldPlatforms:
		return launchpad.Platforms
	default:
		return nil
	}
}

// userError turns an error into the line shown under the screen.
func userError(err error) string {
	var inputErr *launchpad.InputError

	switch {
	case errors.As(err, &inputErr):
		return "Please check: " + strings.Join(inputErr.Fields, ", ")
	case errors.Is(err, launchpad.ErrWeekIncomplete):
		return "Reveal all 7 days first."
	case errors.Is(err, launchpad.ErrWeekComplete):
		return "All 7 days are revealed. Press d for your execution docs."
	case launchpad.IsGenerationError(err):
		return "Generation failed: " + err.Error() + ". Try again."
	default:
		return err.Error()
	}
}

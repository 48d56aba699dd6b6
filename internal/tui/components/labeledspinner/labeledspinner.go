// Package labeledspinner renders the "working on it" block shown while a
// model call runs: spinner, title, subtitle and a step/elapsed line.
package labeledspinner

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/repurpose/internal/tui/style"
)

// Model displays a spinner for one generation call. Step and Steps place the
// call in a multi-step run; Steps of zero hides the position.
type Model struct {
	Spinner  spinner.Model
	Title    string
	Subtitle string
	Step     int
	Steps    int
	Started  time.Time

	now func() time.Time
}

// New creates a spinner with the given labels.
func New(s spinner.Spinner, title, subtitle string) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner:  sp,
		Title:    title,
		Subtitle: subtitle,
		now:      time.Now,
	}
}

// WithStep sets the position of the call, 1-based.
func (ls Model) WithStep(step, steps int) Model {
	ls.Step = step
	ls.Steps = steps

	return ls
}

// WithClock replaces the clock used for the elapsed time.
func (ls Model) WithClock(now func() time.Time) Model {
	ls.now = now

	return ls
}

// Start resets the elapsed time and returns the first tick.
func (ls Model) Start() (Model, tea.Cmd) {
	ls.Started = ls.clock()

	return ls, ls.Spinner.Tick
}

// Update handles spinner tick messages.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		ls.Spinner, cmd = ls.Spinner.Update(tickMsg)

		return ls, cmd
	}

	return ls, nil
}

// Progress is the help line, e.g. "Step 2 of 3 · 14s elapsed".
func (ls Model) Progress() string {
	var elapsed time.Duration
	if !ls.Started.IsZero() {
		elapsed = ls.clock().Sub(ls.Started).Truncate(time.Second)
	}

	if ls.Steps <= 0 {
		return fmt.Sprintf("%s elapsed", elapsed)
	}

	return fmt.Sprintf("Step %d of %d · %s elapsed", ls.Step, ls.Steps, elapsed)
}

// View renders the spinner block.
func (ls Model) View() string {
	var sb strings.Builder

	sb.WriteString(ls.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(ls.Title))
	sb.WriteString("\n\n")

	if ls.Subtitle != "" {
		sb.WriteString(style.Subtitle.Render(ls.Subtitle))
		sb.WriteString("\n\n")
	}

	sb.WriteString(style.Help.Render(ls.Progress()))

	return sb.String()
}

func (ls Model) clock() time.Time {
	if ls.now == nil {
		return time.Now()
	}

	return ls.now()
}

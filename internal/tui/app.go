// Package tui hosts the terminal front end of a repurpose run.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/repurpose/internal/tui/components/keyhelp"
	"github.com/alkime/repurpose/internal/tui/components/phases"
	"github.com/alkime/repurpose/internal/tui/style"
	"github.com/alkime/repurpose/internal/tui/workflow"
)

// Config holds the TUI configuration.
type Config struct {
	Cancel context.CancelFunc
}

// app runs the pipeline phases and handles global keys.
type app struct {
	config       Config
	keys         keyhelp.GlobalKeyMap
	phases       phases.Model
	windowWidth  int
	windowHeight int
}

// New creates the TUI model for one pipeline run.
func New(ctx context.Context, config Config, stager workflow.Stager, run *workflow.Run) tea.Model {
	return &app{
		config:       config,
		keys:         keyhelp.DefaultGlobalKeyMap(),
		phases:       phases.New(workflow.Phases(ctx, stager, run)),
		windowWidth:  80,
		windowHeight: 24,
	}
}

// Init returns the initial command.
func (m *app) Init() tea.Cmd {
	return m.phases.Init()
}

// Update handles all messages.
func (m *app) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := teaMsg.(tea.WindowSizeMsg); ok {
		m.windowWidth = wsm.Width
		m.windowHeight = wsm.Height
	}

	// Global key handling (quit from any phase)
	if km, ok := teaMsg.(tea.KeyMsg); ok {
		if key.Matches(km, m.keys.ForceQuit) || key.Matches(km, m.keys.Quit) {
			if m.config.Cancel != nil {
				m.config.Cancel()
			}

			return m, tea.Quit
		}
	}

	updatedPhases, cmd := m.phases.Update(teaMsg)
	m.phases = updatedPhases.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

	return m, cmd
}

// View renders the current UI.
func (m *app) View() string {
	var sb strings.Builder

	curr, total := m.phases.Position()
	sb.WriteString(style.Subtitle.Render(fmt.Sprintf("Phase %d/%d: %s", curr, total, m.phases.CurrentPhaseName())))
	sb.WriteString("\n\n")

	sb.WriteString(m.phases.View())

	return sb.String()
}

package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alkime/repurpose/internal/editor"
	"github.com/alkime/repurpose/internal/tui/components/keyhelp"
	"github.com/alkime/repurpose/internal/tui/style"
)

// savedMsg reports the outcome of writing the result file.
type savedMsg struct {
	path string
	err  error
}

var editKey = key.NewBinding(
	key.WithKeys("e"),
	key.WithHelp("e", "open in editor"),
)

type resultPhase struct {
	run      *Run
	viewport viewport.Model
	width    int
	ready    bool
	saved    *savedMsg
	editErr  error
}

// NewResultPhase shows the final content and writes it to the run's
// output path.
func NewResultPhase(run *Run) tea.Model {
	return &resultPhase{run: run}
}

func (rp *resultPhase) Init() tea.Cmd {
	return tea.Batch(rp.saveCmd(), tea.WindowSize())
}

func (rp *resultPhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		rp.setupViewport(msg.Width, msg.Height)
		rp.ready = true

		return rp, nil

	case savedMsg:
		rp.saved = &msg

		return rp, nil

	case editor.ClosedMsg:
		rp.editErr = msg.Err
		if msg.Err == nil {
			rp.reload(msg.Path)
		}

		return rp, nil

	case tea.KeyMsg:
		if key.Matches(msg, editKey) && rp.canEdit() {
			return rp, rp.run.Editor.Launch(rp.saved.path)
		}
	}

	var cmd tea.Cmd
	rp.viewport, cmd = rp.viewport.Update(teaMsg)

	return rp, cmd
}

func (rp *resultPhase) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("=== Content Ready! ==="))
	sb.WriteString("\n\n")

	if rp.ready {
		sb.WriteString(style.Viewport.Render(rp.viewport.View()))
		sb.WriteString("\n\n")
	}

	switch {
	case rp.saved == nil:
		sb.WriteString(style.Muted.Render("Saving..."))
	case rp.saved.err != nil:
		sb.WriteString(style.Error.Render("✗ " + rp.saved.err.Error()))
	default:
		sb.WriteString(style.Label.Render("Saved: "))
		sb.WriteString(style.Muted.Render(rp.saved.path))
	}
	sb.WriteString("\n\n")

	if rp.editErr != nil {
		sb.WriteString(style.Error.Render("✗ " + rp.editErr.Error()))
		sb.WriteString("\n\n")
	}
	if rp.canEdit() {
		sb.WriteString(keyhelp.Render(editKey, " "))
	}
	sb.WriteString(keyhelp.Global())

	return sb.String()
}

func (rp *resultPhase) setupViewport(width, height int) {
	headerHeight := 3
	footerHeight := 5
	viewportHeight := max(height-headerHeight-footerHeight, 5)
	viewportWidth := max(width-4, 10)

	rp.width = viewportWidth
	rp.viewport = viewport.New(viewportWidth, viewportHeight)
	rp.viewport.SetContent(wrapText(rp.run.Result.Final, viewportWidth))
}

func (rp *resultPhase) canEdit() bool {
	return rp.run.Editor != nil && rp.saved != nil && rp.saved.err == nil
}

// reload shows the file as the editor left it.
func (rp *resultPhase) reload(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		rp.editErr = fmt.Errorf("failed to reload edited content: %w", err)
		return
	}

	if rp.ready {
		rp.viewport.SetContent(wrapText(string(data), rp.width))
	}
}

func (rp *resultPhase) saveCmd() tea.Cmd {
	path := rp.run.OutputPath
	body := rp.run.Result.Markdown(rp.run.Input.Profile)

	return func() tea.Msg {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return savedMsg{err: fmt.Errorf("failed to create output directory: %w", err)}
		}

		//nolint:gosec // Content files need to be readable
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return savedMsg{err: fmt.Errorf("failed to write content: %w", err)}
		}

		return savedMsg{path: path}
	}
}

// wrapText wraps the given text to fit within the specified width using lipgloss.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	return lipgloss.NewStyle().Width(width).Render(text)
}

// Package editor opens files in the user's preferred editor.
package editor

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ClosedMsg is sent when the editor exits.
type ClosedMsg struct {
	Path string
	Err  error
}

// Command builds the command that opens filePath. It uses the $EDITOR
// environment variable, defaulting to "vi" if not set. $EDITOR may carry
// flags, e.g. "code --wait".
func Command(filePath string) *exec.Cmd {
	parts := strings.Fields(os.Getenv("EDITOR"))
	if len(parts) == 0 {
		parts = []string{"vi"}
	}

	//nolint:gosec // The editor is chosen by the user
	return exec.Command(parts[0], append(parts[1:], filePath)...)
}

// Launcher opens files from inside a running terminal UI.
type Launcher struct{}

// Launch suspends the program, runs the editor and resumes with a ClosedMsg.
func (Launcher) Launch(filePath string) tea.Cmd {
	cmd := Command(filePath)
	slog.Info("Opening file in editor", "editor", cmd.Path, "path", filePath)

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		if err != nil {
			slog.Error("Failed to open editor", "error", err)
		}

		return ClosedMsg{Path: filePath, Err: err}
	})
}

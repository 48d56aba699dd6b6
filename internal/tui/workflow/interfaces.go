package workflow

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/repurpose/internal/content"
)

// Stager runs one pipeline stage against the outputs gathered so far.
type Stager interface {
	RunStage(ctx context.Context, stage content.Stage, in content.Input, prev *content.Result) (string, error)
}

// EditorLauncher opens a file in an external editor.
type EditorLauncher interface {
	Launch(filePath string) tea.Cmd
}

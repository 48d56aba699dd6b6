// Package workflow hosts the phases of a terminal repurpose run.
package workflow

import (
	"context"

	"github.com/alkime/repurpose/internal/content"
	"github.com/alkime/repurpose/internal/tui/components/phases"
)

// Run is the state shared by the phases of one run.
type Run struct {
	Input      content.Input
	Result     content.Result
	OutputPath string
	// Editor is optional; without it the result cannot be opened for edits.
	Editor EditorLauncher
}

// Phases returns one phase per pipeline stage followed by the result phase.
// The input must already be validated and normalized.
func Phases(ctx context.Context, stager Stager, run *Run) []phases.Phase {
	list := make([]phases.Phase, 0, len(content.Stages)+1)
	for i, stage := range content.Stages {
		list = append(list, phases.NewPhase(stage.Title(), NewStagePhase(ctx, stager, run, stage, i)))
	}

	return append(list, phases.NewPhase("Result", NewResultPhase(run)))
}

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/repurpose/internal/content"
	"github.com/alkime/repurpose/internal/tui/components/keyhelp"
	"github.com/alkime/repurpose/internal/tui/components/labeledspinner"
	"github.com/alkime/repurpose/internal/tui/components/phases"
	"github.com/alkime/repurpose/internal/tui/style"
)

// stageDoneMsg carries a finished stage back to its phase.
type stageDoneMsg struct {
	stage  content.Stage
	output string
	err    error
}

type stagePhase struct {
	ctx     context.Context
	stager  Stager
	run     *Run
	stage   content.Stage
	spinner labeledspinner.Model
	err     error
}

var stageLabels = map[content.Stage][2]string{
	content.StageCaptain:  {"Step 1: The Chef Takes the Order", "Structuring your requirements into an order block..."},
	content.StageSousChef: {"Step 2: Tossed in the Wok", "Drafting the production blueprint..."},
	content.StageChef:     {"Step 3: Final Plating", "Cooking the final deliverables..."},
}

// NewStagePhase creates the phase that runs a single pipeline stage.
func NewStagePhase(ctx context.Context, stager Stager, run *Run, stage content.Stage, index int) tea.Model {
	labels := stageLabels[stage]

	return &stagePhase{
		ctx:     ctx,
		stager:  stager,
		run:     run,
		stage:   stage,
		spinner: labeledspinner.New(spinner.Pulse, labels[0], labels[1]).WithStep(index+1, len(content.Stages)),
	}
}

func (sp *stagePhase) Init() tea.Cmd {
	var tick tea.Cmd
	sp.spinner, tick = sp.spinner.Start()

	return tea.Batch(
		tick,
		sp.generateCmd(),
	)
}

func (sp *stagePhase) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := teaMsg.(stageDoneMsg); ok && msg.stage == sp.stage {
		if msg.err != nil {
			sp.err = msg.err
			slog.Error("Stage failed", "stage", sp.stage, "error", msg.err)

			return sp, nil
		}

		sp.run.Result.Record(sp.stage, msg.output)

		return sp, phases.NextPhaseCmd
	}

	if sp.err != nil {
		return sp, nil
	}

	var cmd tea.Cmd
	sp.spinner, cmd = sp.spinner.Update(teaMsg)

	return sp, cmd
}

func (sp *stagePhase) View() string {
	if sp.err != nil {
		var sb strings.Builder

		sb.WriteString(style.Error.Render(fmt.Sprintf("✗ %s stage failed", sp.stage.Title())))
		sb.WriteString("\n\n")
		sb.WriteString(style.Muted.Render(sp.err.Error()))
		sb.WriteString("\n\n")
		sb.WriteString(keyhelp.Global())

		return sb.String()
	}

	return sp.spinner.View()
}

func (sp *stagePhase) generateCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := sp.stager.RunStage(sp.ctx, sp.stage, sp.run.Input, &sp.run.Result)

		return stageDoneMsg{stage: sp.stage, output: out, err: err}
	}
}

package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alkime/repurpose/internal/llm"
)

// Stage names one step of the repurposing chain.
type Stage string

const (
	// StageCaptain turns the profile and content into an order block.
	StageCaptain Stage = "captain"
	// StageSousChef turns the order block into a production blueprint.
	StageSousChef Stage = "sous_chef"
	// StageChef writes the final deliverables from the blueprint.
	StageChef Stage = "chef"
)

// Stages is the fixed execution order.
var Stages = []Stage{StageCaptain, StageSousChef, StageChef}

// Title returns the human-readable stage name.
func (s Stage) Title() string {
	switch s {
	case StageCaptain:
		return "Captain"
	case StageSousChef:
		return "Sous Chef"
	case StageChef:
		return "Chef"
	default:
		return string(s)
	}
}

// Temperature is the sampling temperature used for the stage.
func (s Stage) Temperature() float64 {
	switch s {
	case StageCaptain:
		return 0.3
	case StageSousChef:
		return 0.5
	default:
		return 0.8
	}
}

// Status is the state carried by a progress event.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress reports a stage transition.
type Progress struct {
	Stage   Stage         `json:"stage"`
	Status  Status        `json:"status"`
	Index   int           `json:"index"`
	Total   int           `json:"total"`
	Elapsed time.Duration `json:"elapsed"`
	Err     string        `json:"error,omitempty"`
}

// ProgressFunc receives progress events; it runs on the pipeline goroutine.
type ProgressFunc func(Progress)

// ErrEmptyStageOutput is returned when a stage produced only whitespace.
var ErrEmptyStageOutput = errors.New("stage produced no output")

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage.Title(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result holds every stage's output.
type Result struct {
	OrderBlock string `json:"order_block"`
	Blueprint  string `json:"blueprint"`
	Final      string `json:"content"`
}

// Pipeline chains the Captain, Sous Chef and Chef calls.
type Pipeline struct {
	gen    llm.Generator
	logger *slog.Logger
	now    func() time.Time
}

// NewPipeline creates a pipeline over the given generator.
func NewPipeline(gen llm.Generator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		gen:    gen,
		logger: logger,
		now:    time.Now,
	}
}

// Run validates the input and executes the three stages in order. Each
// stage starts only after the previous one returned non-empty output.
// report may be nil.
func (p *Pipeline) Run(ctx context.Context, in Input, report ProgressFunc) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.Normalize()

	if report == nil {
		report = func(Progress) {}
	}

	var res Result
	for i, stage := range Stages {
		started := p.now()
		report(Progress{Stage: stage, Status: StatusStarted, Index: i, Total: len(Stages)})

		out, err := p.RunStage(ctx, stage, in, &res)
		elapsed := p.now().Sub(started)
		if err != nil {
			report(Progress{
				Stage: stage, Status: StatusFailed, Index: i, Total: len(Stages),
				Elapsed: elapsed, Err: err.Error(),
			})

			return nil, err
		}

		res.set(stage, out)
		report(Progress{Stage: stage, Status: StatusCompleted, Index: i, Total: len(Stages), Elapsed: elapsed})
	}

	return &res, nil
}

// RunStage executes a single stage against the outputs gathered so far.
// The input must already be normalized.
func (p *Pipeline) RunStage(ctx context.Context, stage Stage, in Input, prev *Result) (string, error) {
	req, err := stageRequest(stage, in, prev)
	if err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}

	p.logger.Debug("Running stage", "stage", stage, "prompt_len", len(req.Prompt))

	out, err := p.gen.Generate(ctx, req)
	if err != nil {
		p.logger.Error("Stage generation failed", "stage", stage, "error", err)
		return "", &StageError{Stage: stage, Err: err}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", &StageError{Stage: stage, Err: ErrEmptyStageOutput}
	}

	p.logger.Info("Stage complete", "stage", stage, "output_len", len(out))

	return out, nil
}

func stageRequest(stage Stage, in Input, prev *Result) (llm.Request, error) {
	req := llm.Request{Temperature: stage.Temperature()}

	switch stage {
	case StageCaptain:
		req.System = CaptainSystemPrompt
		req.Prompt = CaptainPrompt(in)
	case StageSousChef:
		if prev == nil || prev.OrderBlock == "" {
			return req, errors.New("missing order block")
		}
		req.System = SousChefSystemPrompt
		req.Prompt = SousChefPrompt(in, prev.OrderBlock)
	case StageChef:
		if prev == nil || prev.Blueprint == "" {
			return req, errors.New("missing production blueprint")
		}
		req.System = ChefSystemPrompt
		req.Prompt = ChefPrompt(prev.Blueprint)
	default:
		return req, fmt.Errorf("unknown stage %q", stage)
	}

	return req, nil
}

// set records a stage's output.
func (r *Result) set(stage Stage, out string) {
	switch stage {
	case StageCaptain:
		r.OrderBlock = out
	case StageSousChef:
		r.Blueprint = out
	case StageChef:
		r.Final = out
	}
}

// Record stores out as the output of stage. Callers that drive stages one
// at a time use it to carry results into the next RunStage call.
func (r *Result) Record(stage Stage, out string) {
	r.set(stage, out)
}

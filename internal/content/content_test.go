package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/repurpose/internal/llm"
	"github.com/alkime/repurpose/internal/logger"
)

// recorder answers each call with the next canned output.
type recorder struct {
	outputs []string
	fail    map[int]error
	calls   []llm.Request
}

func (r *recorder) Generate(_ context.Context, req llm.Request) (string, error) {
	i := len(r.calls)
	r.calls = append(r.calls, req)

	if err, ok := r.fail[i]; ok {
		return "", err
	}
	if i < len(r.outputs) {
		return r.outputs[i], nil
	}

	return "", llm.ErrEmptyResponse
}

func validInput() Input {
	return Input{
		Profile: Profile{
			Name:       "Ada Lovelace",
			Profession: "Mathematician",
		},
		Content: "Notes on the analytical engine.",
	}
}

func TestInput_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validInput().Validate())
	})

	t.Run("missing mandatory fields are all listed", func(t *testing.T) {
		err := Input{Content: "   "}.Validate()

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"name", "profession", "content"}, verr.Fields)
		assert.Contains(t, err.Error(), "please fill in all mandatory fields")
	})

	t.Run("unknown platform", func(t *testing.T) {
		in := validInput()
		in.Profile.Platforms = []string{"LinkedIn", "MySpace"}

		var verr *ValidationError
		require.ErrorAs(t, in.Validate(), &verr)
		assert.Equal(t, []string{"platforms"}, verr.Fields)
	})
}

func TestInput_Normalize(t *testing.T) {
	in := validInput()
	in.Profile.Name = "  Ada  "
	in.Profile.Platforms = []string{"Blog Post", " Blog Post ", ""}

	out := in.Normalize()
	assert.Equal(t, "Ada", out.Profile.Name)
	assert.Equal(t, DefaultObjective, out.Profile.Objective)
	assert.Equal(t, DefaultTone, out.Profile.Tone)
	assert.Equal(t, []string{"Blog Post"}, out.Profile.Platforms)

	out = validInput().Normalize()
	assert.Equal(t, DefaultPlatforms, out.Profile.Platforms)
}

func TestCaptainPrompt_TruncatesContent(t *testing.T) {
	in := validInput().Normalize()
	in.Content = strings.Repeat("a", 600)

	prompt := CaptainPrompt(in)
	assert.Contains(t, prompt, strings.Repeat("a", 500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("a", 501))
	assert.Contains(t, prompt, "Name: Ada Lovelace")

	in.Content = "short"
	assert.True(t, strings.HasSuffix(CaptainPrompt(in), "Content: short"))
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("stages chain in order", func(t *testing.T) {
		gen := &recorder{outputs: []string{"ORDER", "BLUEPRINT", "FINAL POSTS"}}
		p := NewPipeline(gen, logger.Discard())

		var events []Progress
		res, err := p.Run(ctx, validInput(), func(ev Progress) { events = append(events, ev) })
		require.NoError(t, err)

		assert.Equal(t, &Result{OrderBlock: "ORDER", Blueprint: "BLUEPRINT", Final: "FINAL POSTS"}, res)

		require.Len(t, gen.calls, 3)
		assert.InDelta(t, 0.3, gen.calls[0].Temperature, 1e-9)
		assert.InDelta(t, 0.5, gen.calls[1].Temperature, 1e-9)
		assert.InDelta(t, 0.8, gen.calls[2].Temperature, 1e-9)
		assert.Contains(t, gen.calls[1].Prompt, "ORDER")
		assert.Contains(t, gen.calls[1].Prompt, "LinkedIn, Twitter/X Thread")
		assert.Equal(t, "INSTRUCTIONS:\nBLUEPRINT", gen.calls[2].Prompt)

		require.Len(t, events, 6)
		assert.Equal(t, StatusStarted, events[0].Status)
		assert.Equal(t, StageChef, events[5].Stage)
		assert.Equal(t, StatusCompleted, events[5].Status)
	})

	t.Run("validation fails before any call", func(t *testing.T) {
		gen := &recorder{}
		_, err := NewPipeline(gen, nil).Run(ctx, Input{}, nil)

		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Empty(t, gen.calls)
	})

	t.Run("failure names the stage and stops", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		gen := &recorder{outputs: []string{"ORDER"}, fail: map[int]error{1: boom}}

		var last Progress
		_, err := NewPipeline(gen, logger.Discard()).Run(ctx, validInput(), func(ev Progress) { last = ev })

		var serr *StageError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, StageSousChef, serr.Stage)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "Sous Chef")
		assert.Len(t, gen.calls, 2)
		assert.Equal(t, StatusFailed, last.Status)
	})

	t.Run("blank output is a stage failure", func(t *testing.T) {
		gen := &recorder{outputs: []string{"  \n "}}
		_, err := NewPipeline(gen, logger.Discard()).Run(ctx, validInput(), nil)

		var serr *StageError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, StageCaptain, serr.Stage)
		assert.ErrorIs(t, err, ErrEmptyStageOutput)
	})
}

func TestPipeline_RunStageNeedsPreviousOutput(t *testing.T) {
	gen := &recorder{}
	_, err := NewPipeline(gen, logger.Discard()).RunStage(context.Background(), StageChef, validInput(), &Result{})

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageChef, serr.Stage)
	assert.Empty(t, gen.calls)
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "simple title",
			title:    "Growth Tips For Coaches",
			expected: "growth-tips-for-coaches",
		},
		{
			name:     "title with special characters",
			title:    "AI-Powered Content: First Draft!",
			expected: "ai-powered-content-first-draft",
		},
		{
			name:     "title with multiple spaces",
			title:    "Multiple    Spaces   Here",
			expected: "multiple-spaces-here",
		},
		{
			name:     "title with leading/trailing spaces",
			title:    "  Trimmed Title  ",
			expected: "trimmed-title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateSlug(tt.title))
		})
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "ada-lovelace-repurposed.md", Filename(Profile{Name: "Ada Lovelace"}))
	assert.Equal(t, DefaultFilename, Filename(Profile{Name: "!!!"}))
}

func TestResult_Markdown(t *testing.T) {
	md := (&Result{Final: "## LinkedIn\nHello"}).Markdown(Profile{Name: "Ada"})
	assert.True(t, strings.HasPrefix(md, "# Repurposed content for Ada\n\n"))
	assert.Contains(t, md, "## LinkedIn\nHello")
}

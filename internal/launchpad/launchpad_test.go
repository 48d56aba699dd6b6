package launchpad

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/repurpose/internal/llm"
	"github.com/alkime/repurpose/internal/logger"
)

// stubPlanner returns canned answers and counts calls.
type stubPlanner struct {
	relevance Relevance
	options   []TopicOption
	strategy  string
	weeks     []string
	docs      Docs
	err       error

	suggestCalls int
	writeCalls   []bool
}

func (p *stubPlanner) CheckRelevance(context.Context, Inputs, string) (Relevance, error) {
	return p.relevance, p.err
}

func (p *stubPlanner) SuggestTopics(context.Context, Inputs) ([]TopicOption, error) {
	p.suggestCalls++
	return p.options, p.err
}

func (p *stubPlanner) Strategy(context.Context, Inputs, TopicOption) (string, error) {
	return p.strategy, p.err
}

func (p *stubPlanner) WriteWeek(_ context.Context, _ Inputs, _ TopicOption, _ string, strict bool) (string, error) {
	i := len(p.writeCalls)
	p.writeCalls = append(p.writeCalls, strict)
	if i < len(p.weeks) {
		return p.weeks[i], nil
	}

	return "", errors.New("no more weeks")
}

func (p *stubPlanner) ExecutionDocs(context.Context, Inputs, TopicOption, []Day) (Docs, error) {
	return p.docs, p.err
}

func weekText(days int) string {
	var sb strings.Builder
	for i := 1; i <= days; i++ {
		fmt.Fprintf(&sb, "Day %d\nHook: hook %d\nScript:\nline one of %d\nline two\nCTA: follow\nHashtags: #a b,#c\n\n", i, i, i)
	}

	return sb.String()
}

func threeOptions() []TopicOption {
	return []TopicOption{
		{Topic: "Checklist", Angle: "Step by step"},
		{Topic: "Mistakes", Angle: "Top 5"},
		{Topic: "Routine", Angle: "One week"},
	}
}

func newTestEngine(p Planner) (*Engine, *[]Screen) {
	var seen []Screen
	e := NewEngine(p, logger.Discard(), WithTransitionHook(func(_, to Screen) {
		seen = append(seen, to)
	}))

	return e, &seen
}

// atTopicOptions drives a session up to the topic options screen.
func atTopicOptions(t *testing.T, e *Engine) *Session {
	t.Helper()
	ctx := context.Background()

	s := New("s1")
	require.NoError(t, e.Begin(s, false))
	require.NoError(t, e.SubmitInputs(s, Inputs{Niche: "Travel"}))
	require.NoError(t, e.SuggestTopics(ctx, s))

	return s
}

func TestInputs_NormalizeAndValidate(t *testing.T) {
	in := Inputs{Niche: "  Fitness "}.Normalize()
	assert.Equal(t, Inputs{
		Niche:      "Fitness",
		Goal:       "Grow brand",
		Style:      "Educator",
		Platforms:  []string{"LinkedIn", "Instagram"},
		TimePerDay: "10 min",
	}, in)
	assert.NoError(t, in.Validate())

	bad := Inputs{Goal: "Get rich", Platforms: []string{"MySpace"}}.Normalize()
	var ierr *InputError
	require.ErrorAs(t, bad.Validate(), &ierr)
	assert.Equal(t, []string{"niche", "goal", "platforms"}, ierr.Fields)
}

func TestEngine_SuggestedTopicFlow(t *testing.T) {
	ctx := context.Background()
	p := &stubPlanner{
		options:  threeOptions(),
		strategy: "the plan",
		weeks:    []string{weekText(7)},
		docs:     Docs{Calendar: "CAL", Checklist: "CHECK", Scorecard: "SCORE"},
	}
	e, seen := newTestEngine(p)

	s := New("s1")
	assert.Equal(t, ScreenWelcome, s.Screen)

	require.NoError(t, e.Begin(s, true))
	assert.True(t, s.ShowGuide)
	require.NoError(t, e.SubmitInputs(s, Inputs{Niche: "Travel"}))
	require.NoError(t, e.SuggestTopics(ctx, s))
	require.Len(t, s.Options, 3)

	require.NoError(t, e.Select(ctx, s, 1))
	assert.Equal(t, ScreenDays, s.Screen)
	assert.Equal(t, "Mistakes", s.Selected.Topic)
	assert.Equal(t, "the plan", s.Strategy)
	assert.Len(t, s.Days, 7)
	assert.Equal(t, 0, s.Revealed)
	assert.Empty(t, s.VisibleDays())
	assert.Equal(t, 1, s.PlanCount)

	for i := 1; i <= 7; i++ {
		day, err := e.RevealNext(s)
		require.NoError(t, err)
		assert.Equal(t, i, day.Number)
		assert.Len(t, s.VisibleDays(), i)
	}
	_, err := e.RevealNext(s)
	assert.ErrorIs(t, err, ErrWeekComplete)

	require.NoError(t, e.BuildDocs(ctx, s))
	assert.Equal(t, "CAL", s.Docs.Calendar)

	pack, err := s.Export()
	require.NoError(t, err)
	assert.Contains(t, pack, "Topic: Mistakes")
	assert.Contains(t, pack, "Day 7\nHOOK: hook 7")
	assert.Contains(t, pack, "HASHTAGS: #a #b #c")
	assert.Contains(t, pack, "SCORE")
	assert.Equal(t, "Week_1_Content_Pack.txt", s.Filename())

	assert.Equal(t, []Screen{
		ScreenInputs, ScreenChooseTopic, ScreenTopicOptions, ScreenDays, ScreenExecutionDocs,
	}, *seen)
}

func TestEngine_OwnTopicFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("relevant topic gets practical angle", func(t *testing.T) {
		p := &stubPlanner{relevance: Relevance{Relevance: "relevant", Score: 0.85}}
		e, _ := newTestEngine(p)

		s := New("s1")
		require.NoError(t, e.Begin(s, false))
		require.NoError(t, e.SubmitInputs(s, Inputs{Niche: "Marketing"}))
		require.NoError(t, e.CheckTopic(ctx, s, "  Email funnels "))
		assert.Equal(t, ScreenRelevance, s.Screen)
		assert.Equal(t, "Email funnels", s.UserTopic)

		require.NoError(t, e.KeepTopic(s))
		require.Len(t, s.Options, 1)
		assert.Equal(t, TopicOption{Topic: "Email funnels", Angle: "Practical series", Rationale: "User-provided topic"}, s.Options[0])
	})

	t.Run("irrelevant topic can still be kept", func(t *testing.T) {
		p := &stubPlanner{relevance: Relevance{Score: 0.3}}
		e, _ := newTestEngine(p)

		s := New("s1")
		require.NoError(t, e.Begin(s, false))
		require.NoError(t, e.SubmitInputs(s, Inputs{Niche: "Marketing"}))
		require.NoError(t, e.CheckTopic(ctx, s, "Fax"))
		assert.False(t, s.Relevance.Relevant())

		require.NoError(t, e.KeepTopic(s))
		assert.Equal(t, "User angle", s.Options[0].Angle)
	})

	t.Run("suggestions from the relevance screen", func(t *testing.T) {
		p := &stubPlanner{relevance: Relevance{Score: 0.1}, options: threeOptions()}
		e, _ := newTestEngine(p)

		s := New("s1")
		require.NoError(t, e.Begin(s, false))
		require.NoError(t, e.SubmitInputs(s, Inputs{Niche: "Marketing"}))
		require.NoError(t, e.CheckTopic(ctx, s, "Fax"))
		require.NoError(t, e.SuggestTopics(ctx, s))
		assert.Len(t, s.Options, 3)
	})

	t.Run("blank topic", func(t *testing.T) {
		e, _ := newTestEngine(&stubPlanner{})

		s := New("s1")
		require.NoError(t, e.Begin(s, false))
		require.NoError(t, e.SubmitInputs(s, Inputs{Niche: "Marketing"}))

		var ierr *InputError
		require.ErrorAs(t, e.CheckTopic(ctx, s, "   "), &ierr)
		assert.Equal(t, ScreenChooseTopic, s.Screen)
	})
}

func TestEngine_WrongScreen(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(&stubPlanner{options: threeOptions()})

	s := New("s1")
	before := *s

	err := e.SubmitInputs(s, Inputs{Niche: "Travel"})
	require.ErrorIs(t, err, ErrWrongScreen)
	assert.Equal(t, before, *s)

	var serr *ScreenError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ScreenWelcome, serr.Current)

	assert.ErrorIs(t, e.Select(ctx, s, 0), ErrWrongScreen)
	_, err = e.RevealNext(s)
	assert.ErrorIs(t, err, ErrWrongScreen)
	assert.ErrorIs(t, e.BuildDocs(ctx, s), ErrWrongScreen)
	assert.ErrorIs(t, e.Restart(s), ErrWrongScreen)
	_, err = s.Export()
	assert.ErrorIs(t, err, ErrWrongScreen)
}

func TestEngine_Select(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed week retried once with strict reminder", func(t *testing.T) {
		p := &stubPlanner{options: threeOptions(), strategy: "s", weeks: []string{"just prose", weekText(7)}}
		e, _ := newTestEngine(p)
		s := atTopicOptions(t, e)

		require.NoError(t, e.Select(ctx, s, 0))
		assert.Equal(t, []bool{false, true}, p.writeCalls)
		assert.Len(t, s.Days, 7)
	})

	t.Run("malformed twice leaves session unchanged", func(t *testing.T) {
		p := &stubPlanner{options: threeOptions(), strategy: "s", weeks: []string{weekText(5), weekText(6)}}
		e, _ := newTestEngine(p)
		s := atTopicOptions(t, e)

		err := e.Select(ctx, s, 0)
		require.ErrorIs(t, err, ErrMalformedWeek)
		assert.True(t, IsGenerationError(err))
		assert.Equal(t, ScreenTopicOptions, s.Screen)
		assert.Nil(t, s.Selected)
		assert.Zero(t, s.PlanCount)
	})

	t.Run("index out of range", func(t *testing.T) {
		e, _ := newTestEngine(&stubPlanner{options: threeOptions()})
		s := atTopicOptions(t, e)

		err := e.Select(ctx, s, 3)
		require.ErrorIs(t, err, ErrInvalidSelection)
		assert.False(t, IsGenerationError(err))
	})

	t.Run("generation failure", func(t *testing.T) {
		p := &stubPlanner{options: threeOptions()}
		e, _ := newTestEngine(p)
		s := atTopicOptions(t, e)

		p.err = errors.New("quota")
		err := e.Select(ctx, s, 0)
		require.Error(t, err)
		assert.True(t, IsGenerationError(err))
		assert.Equal(t, ScreenTopicOptions, s.Screen)
	})
}

func TestEngine_RegenerateAndRestart(t *testing.T) {
	ctx := context.Background()
	p := &stubPlanner{options: threeOptions(), strategy: "s", weeks: []string{weekText(7), weekText(7)}}
	e, _ := newTestEngine(p)
	s := atTopicOptions(t, e)

	require.NoError(t, e.Regenerate(ctx, s))
	assert.Equal(t, 2, p.suggestCalls)

	require.NoError(t, e.Select(ctx, s, 2))
	_, err := e.RevealNext(s)
	require.NoError(t, err)
	assert.ErrorIs(t, e.BuildDocs(ctx, s), ErrWeekIncomplete)

	require.NoError(t, e.Restart(s))
	assert.Equal(t, ScreenChooseTopic, s.Screen)
	assert.Equal(t, "Travel", s.Inputs.Niche)
	assert.Nil(t, s.Options)
	assert.Nil(t, s.Days)
	assert.Zero(t, s.Revealed)
	assert.Equal(t, 1, s.PlanCount)

	require.NoError(t, e.SuggestTopics(ctx, s))
	require.NoError(t, e.Select(ctx, s, 0))
	assert.Equal(t, 2, s.PlanCount)
	assert.Equal(t, "Week_2_Content_Pack.txt", s.Filename())
}

func TestEngine_BuildDocsRejectsEmptyDocs(t *testing.T) {
	ctx := context.Background()
	p := &stubPlanner{options: threeOptions(), strategy: "s", weeks: []string{weekText(7)}}
	e, _ := newTestEngine(p)
	s := atTopicOptions(t, e)
	require.NoError(t, e.Select(ctx, s, 0))
	for range DaysPerWeek {
		_, err := e.RevealNext(s)
		require.NoError(t, err)
	}

	gen, _ := cannedGenerator(`{"calendar":" ","checklist":"","scorecard":""}`)
	e.planner = testPlanner(gen)

	err := e.BuildDocs(ctx, s)
	require.ErrorIs(t, err, llm.ErrEmptyResponse)
	assert.True(t, IsGenerationError(err))
	assert.Equal(t, ScreenDays, s.Screen)
	assert.Nil(t, s.Docs)
}

func TestSplitWeek(t *testing.T) {
	t.Run("labelled days", func(t *testing.T) {
		days, err := SplitWeek(weekText(7))
		require.NoError(t, err)
		require.Len(t, days, 7)

		d := days[2]
		assert.Equal(t, 3, d.Number)
		assert.Equal(t, "hook 3", d.Hook)
		assert.Equal(t, "line one of 3\nline two", d.Script)
		assert.Equal(t, "follow", d.CTA)
		assert.Equal(t, []string{"#a", "#b", "#c"}, d.Hashtags)
	})

	t.Run("markdown headers and bold labels", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("Here is your week!\n\n")
		for i := 1; i <= 7; i++ {
			fmt.Fprintf(&sb, "## Day %d: Theme\n**Hook:** Big idea %d\n**Script:** Short script.\n**CTA:** Comment below\n\n", i, i)
		}

		days, err := SplitWeek(sb.String())
		require.NoError(t, err)
		assert.Equal(t, "Big idea 7", days[6].Hook)
		assert.Equal(t, "Short script.", days[6].Script)
		assert.Equal(t, "Comment below", days[6].CTA)
	})

	t.Run("unlabelled body", func(t *testing.T) {
		var sb strings.Builder
		for i := 1; i <= 7; i++ {
			fmt.Fprintf(&sb, "Day %d\nOpening line\nRest of the post.\n", i)
		}

		days, err := SplitWeek(sb.String())
		require.NoError(t, err)
		assert.Equal(t, "Opening line", days[0].Hook)
		assert.Equal(t, "Rest of the post.", days[0].Script)
	})

	t.Run("hashtags and script lines naming a day", func(t *testing.T) {
		var sb strings.Builder
		for i := 1; i <= 7; i++ {
			fmt.Fprintf(&sb, "Day %d\nHook: hook %d\nScript:\nDay %d is when it clicks.\nday 1 felt slow\nCTA: follow\nHashtags:\n#Day%d #fitness #7daychallenge\n\n", i, i, i+1, i)
		}

		days, err := SplitWeek(sb.String())
		require.NoError(t, err)
		require.Len(t, days, 7)
		assert.Equal(t, "Day 4 is when it clicks.\nday 1 felt slow", days[2].Script)
		assert.Equal(t, []string{"#Day3", "#fitness", "#7daychallenge"}, days[2].Hashtags)
		assert.Equal(t, "hook 7", days[6].Hook)
	})

	t.Run("crlf line endings", func(t *testing.T) {
		days, err := SplitWeek(strings.ReplaceAll(weekText(7), "\n", "\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "follow", days[0].CTA)
	})

	t.Run("wrong count", func(t *testing.T) {
		_, err := SplitWeek(weekText(6))
		assert.ErrorIs(t, err, ErrMalformedWeek)
	})

	t.Run("out of order", func(t *testing.T) {
		text := strings.Replace(weekText(7), "Day 2\n", "Day 9\n", 1)
		_, err := SplitWeek(text)
		assert.ErrorIs(t, err, ErrMalformedWeek)
	})
}

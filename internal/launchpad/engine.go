package launchpad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// TransitionFunc observes screen changes.
type TransitionFunc func(from, to Screen)

// Engine advances sessions through the screens. Operations either apply
// completely or leave the session untouched.
type Engine struct {
	planner      Planner
	logger       *slog.Logger
	onTransition TransitionFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransitionHook registers fn to run after every screen change.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(e *Engine) {
		e.onTransition = fn
	}
}

// NewEngine creates an engine over planner.
func NewEngine(planner Planner, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{planner: planner, logger: logger}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) move(s *Session, to Screen) {
	from := s.Screen
	s.Screen = to

	e.logger.Debug("Launchpad screen change", "session", s.ID, "from", from, "to", to)
	if e.onTransition != nil {
		e.onTransition(from, to)
	}
}

// Begin leaves the welcome screen.
func (e *Engine) Begin(s *Session, showGuide bool) error {
	if err := s.expect("begin", ScreenWelcome); err != nil {
		return err
	}

	s.ShowGuide = showGuide
	e.move(s, ScreenInputs)

	return nil
}

// SubmitInputs records the creator's inputs.
func (e *Engine) SubmitInputs(s *Session, in Inputs) error {
	if err := s.expect("submit inputs", ScreenInputs); err != nil {
		return err
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	s.Inputs = in
	e.move(s, ScreenChooseTopic)

	return nil
}

// CheckTopic runs the relevance check on the creator's own topic.
func (e *Engine) CheckTopic(ctx context.Context, s *Session, topic string) error {
	if err := s.expect("check topic", ScreenChooseTopic); err != nil {
		return err
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return &InputError{Fields: []string{"topic"}}
	}

	rel, err := e.planner.CheckRelevance(ctx, s.Inputs, topic)
	if err != nil {
		return err
	}

	s.UserTopic = topic
	s.Relevance = &rel
	e.move(s, ScreenRelevance)

	return nil
}

// KeepTopic continues with the creator's own topic regardless of score.
func (e *Engine) KeepTopic(s *Session) error {
	if err := s.expect("keep topic", ScreenRelevance); err != nil {
		return err
	}

	opt := TopicOption{Topic: s.UserTopic, Angle: "User angle", Rationale: "User chose to continue"}
	if s.Relevance != nil && s.Relevance.Relevant() {
		opt.Angle = "Practical series"
		opt.Rationale = "User-provided topic"
	}

	s.Options = []TopicOption{opt}
	e.move(s, ScreenTopicOptions)

	return nil
}

// SuggestTopics asks for three generated topic options.
func (e *Engine) SuggestTopics(ctx context.Context, s *Session) error {
	if err := s.expect("suggest topics", ScreenChooseTopic, ScreenRelevance); err != nil {
		return err
	}

	return e.suggest(ctx, s)
}

// Regenerate replaces the current options with fresh ones.
func (e *Engine) Regenerate(ctx context.Context, s *Session) error {
	if err := s.expect("regenerate", ScreenTopicOptions); err != nil {
		return err
	}

	return e.suggest(ctx, s)
}

func (e *Engine) suggest(ctx context.Context, s *Session) error {
	options, err := e.planner.SuggestTopics(ctx, s.Inputs)
	if err != nil {
		return err
	}

	s.Options = options
	e.move(s, ScreenTopicOptions)

	return nil
}

// Select picks an option and writes the week: a strategy pass, then a
// writing pass that is split into seven days. A malformed week is retried
// once with a stricter format reminder.
func (e *Engine) Select(ctx context.Context, s *Session, index int) error {
	if err := s.expect("select", ScreenTopicOptions); err != nil {
		return err
	}
	if index < 0 || index >= len(s.Options) {
		return fmt.Errorf("%w: %d", ErrInvalidSelection, index)
	}

	opt := s.Options[index]

	strategy, err := e.planner.Strategy(ctx, s.Inputs, opt)
	if err != nil {
		return err
	}

	var days []Day
	for attempt := range 2 {
		text, err := e.planner.WriteWeek(ctx, s.Inputs, opt, strategy, attempt > 0)
		if err != nil {
			return err
		}

		days, err = SplitWeek(text)
		if err == nil {
			break
		}
		if attempt > 0 {
			return err
		}

		e.logger.Warn("Week could not be split, retrying", "session", s.ID, "error", err)
	}

	s.Selected = &opt
	s.Strategy = strategy
	s.Days = days
	s.Revealed = 0
	s.Docs = nil
	s.PlanCount++
	e.move(s, ScreenDays)

	return nil
}

// RevealNext shows one more day.
func (e *Engine) RevealNext(s *Session) (Day, error) {
	if err := s.expect("reveal", ScreenDays); err != nil {
		return Day{}, err
	}
	if s.Revealed >= len(s.Days) {
		return Day{}, ErrWeekComplete
	}

	s.Revealed++

	return s.Days[s.Revealed-1], nil
}

// BuildDocs generates the execution pack once the week is fully revealed.
func (e *Engine) BuildDocs(ctx context.Context, s *Session) error {
	if err := s.expect("build docs", ScreenDays); err != nil {
		return err
	}
	if !s.WeekComplete() {
		return ErrWeekIncomplete
	}

	docs, err := e.planner.ExecutionDocs(ctx, s.Inputs, *s.Selected, s.Days)
	if err != nil {
		return err
	}

	s.Docs = &docs
	e.move(s, ScreenExecutionDocs)

	return nil
}

// Restart starts another plan with the same inputs.
func (e *Engine) Restart(s *Session) error {
	err := s.expect("restart",
		ScreenChooseTopic, ScreenRelevance, ScreenTopicOptions, ScreenDays, ScreenExecutionDocs)
	if err != nil {
		return err
	}

	s.UserTopic = ""
	s.Relevance = nil
	s.Options = nil
	s.Selected = nil
	s.Strategy = ""
	s.Days = nil
	s.Revealed = 0
	s.Docs = nil
	e.move(s, ScreenChooseTopic)

	return nil
}

// IsGenerationError reports whether err came from the planner rather than
// from the state machine or user input.
func IsGenerationError(err error) bool {
	if err == nil {
		return false
	}

	var inputErr *InputError
	sentinels := []error{ErrWrongScreen, ErrWeekComplete, ErrWeekIncomplete, ErrInvalidSelection}

	return !errors.As(err, &inputErr) && !slices.ContainsFunc(sentinels, func(target error) bool {
		return errors.Is(err, target)
	})
}

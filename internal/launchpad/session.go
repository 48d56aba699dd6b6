// Package launchpad implements the 7-Day Consistency Launchpad: a linear
// sequence of screens that turns a creator's niche into a week of posts.
package launchpad

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Screen is a step of the launchpad flow.
type Screen string

const (
	ScreenWelcome       Screen = "welcome"
	ScreenInputs        Screen = "inputs"
	ScreenChooseTopic   Screen = "choose_topic"
	ScreenRelevance     Screen = "relevance"
	ScreenTopicOptions  Screen = "topic_options"
	ScreenDays          Screen = "days"
	ScreenExecutionDocs Screen = "execution_docs"
)

// DaysPerWeek is the length of a plan.
const DaysPerWeek = 7

// RelevanceThreshold is the lowest score counted as relevant.
const RelevanceThreshold = 0.5

var (
	// ErrWrongScreen is returned when an operation is not allowed on the
	// current screen.
	ErrWrongScreen = errors.New("operation not allowed on this screen")
	// ErrWeekComplete is returned when all days are already revealed.
	ErrWeekComplete = errors.New("all days already revealed")
	// ErrWeekIncomplete is returned when docs are requested before every
	// day has been revealed.
	ErrWeekIncomplete = errors.New("reveal all days first")
	// ErrMalformedWeek is returned when the writing pass could not be split
	// into seven days.
	ErrMalformedWeek = errors.New("generated week could not be split into seven days")
	// ErrInvalidSelection is returned for an out-of-range option index.
	ErrInvalidSelection = errors.New("invalid topic selection")
)

// ScreenError reports the screen an operation was attempted on.
type ScreenError struct {
	Op      string
	Current Screen
	Allowed []Screen
}

func (e *ScreenError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}

	return fmt.Sprintf("%s: not allowed on screen %q (want %s)", e.Op, e.Current, strings.Join(allowed, " or "))
}

func (e *ScreenError) Is(target error) bool {
	return target == ErrWrongScreen
}

// InputError lists invalid input fields.
type InputError struct {
	Fields []string
}

func (e *InputError) Error() string {
	return "invalid inputs: " + strings.Join(e.Fields, ", ")
}

// Option lists for the inputs screen. The first entry is the default.
var (
	Goals         = []string{"Grow brand", "Attract clients", "Share knowledge", "Build authority"}
	Styles        = []string{"Educator", "Storyteller", "Conversational", "Entertaining", "Witty"}
	Platforms     = []string{"LinkedIn", "Instagram", "Twitter/X", "YouTube Short", "Facebook"}
	TimesPerDay   = []string{"10 min", "20 min", "30 min", "1 hour"}
	DefaultChosen = []string{"LinkedIn", "Instagram"}
)

// Inputs is what the creator tells the launchpad about themselves.
type Inputs struct {
	Niche      string   `json:"niche"`
	Goal       string   `json:"goal"`
	Style      string   `json:"style"`
	Platforms  []string `json:"platforms"`
	TimePerDay string   `json:"time_per_day"`
}

// Normalize trims fields and fills blanks with the first option.
func (in Inputs) Normalize() Inputs {
	out := Inputs{
		Niche:      strings.TrimSpace(in.Niche),
		Goal:       orFirst(in.Goal, Goals),
		Style:      orFirst(in.Style, Styles),
		TimePerDay: orFirst(in.TimePerDay, TimesPerDay),
	}

	for _, p := range in.Platforms {
		p = strings.TrimSpace(p)
		if p != "" && !slices.Contains(out.Platforms, p) {
			out.Platforms = append(out.Platforms, p)
		}
	}
	if len(out.Platforms) == 0 {
		out.Platforms = slices.Clone(DefaultChosen)
	}

	return out
}

// Validate checks a normalized Inputs value.
func (in Inputs) Validate() error {
	var fields []string

	if in.Niche == "" {
		fields = append(fields, "niche")
	}
	if !slices.Contains(Goals, in.Goal) {
		fields = append(fields, "goal")
	}
	if !slices.Contains(Styles, in.Style) {
		fields = append(fields, "style")
	}
	if !slices.Contains(TimesPerDay, in.TimePerDay) {
		fields = append(fields, "time_per_day")
	}
	for _, p := range in.Platforms {
		if !slices.Contains(Platforms, p) {
			fields = append(fields, "platforms")
			break
		}
	}

	if len(fields) > 0 {
		return &InputError{Fields: fields}
	}

	return nil
}

func orFirst(v string, options []string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return options[0]
	}

	return v
}

// Relevance is the outcome of the background topic check.
type Relevance struct {
	Relevance string  `json:"relevance" jsonschema:"enum=relevant,enum=irrelevant"`
	Score     float64 `json:"score"`
	Notes     string  `json:"notes"`
}

// Relevant reports whether the score clears the threshold.
func (r Relevance) Relevant() bool {
	return r.Score >= RelevanceThreshold
}

// TopicOption is one topic and angle the creator can pick.
type TopicOption struct {
	Topic     string   `json:"topic"`
	Angle     string   `json:"angle"`
	Rationale string   `json:"rationale"`
	Hashtags  []string `json:"hashtags"`
}

// Day is one daily segment of the written week.
type Day struct {
	Number   int      `json:"day"`
	Hook     string   `json:"hook"`
	Script   string   `json:"script"`
	CTA      string   `json:"cta"`
	Hashtags []string `json:"hashtags"`
}

// Docs is the execution pack built once the week is revealed.
type Docs struct {
	Calendar  string `json:"calendar"`
	Checklist string `json:"checklist"`
	Scorecard string `json:"scorecard"`
}

// Session is the whole state of one launchpad run.
type Session struct {
	ID        string        `json:"id"`
	Screen    Screen        `json:"screen"`
	ShowGuide bool          `json:"show_guide"`
	Inputs    Inputs        `json:"inputs"`
	UserTopic string        `json:"user_topic,omitempty"`
	Relevance *Relevance    `json:"relevance,omitempty"`
	Options   []TopicOption `json:"options,omitempty"`
	Selected  *TopicOption  `json:"selected,omitempty"`
	Strategy  string        `json:"strategy,omitempty"`
	Days      []Day         `json:"days,omitempty"`
	Revealed  int           `json:"revealed"`
	Docs      *Docs         `json:"docs,omitempty"`
	PlanCount int           `json:"plan_count"`
}

// New returns a session on the welcome screen.
func New(id string) *Session {
	return &Session{ID: id, Screen: ScreenWelcome}
}

// VisibleDays returns the days revealed so far.
func (s *Session) VisibleDays() []Day {
	n := min(s.Revealed, len(s.Days))

	return s.Days[:n]
}

// Progress returns how many days are revealed out of the week.
func (s *Session) Progress() (int, int) {
	return s.Revealed, DaysPerWeek
}

// WeekComplete reports whether every day has been revealed.
func (s *Session) WeekComplete() bool {
	return len(s.Days) == DaysPerWeek && s.Revealed >= DaysPerWeek
}

func (s *Session) expect(op string, allowed ...Screen) error {
	if slices.Contains(allowed, s.Screen) {
		return nil
	}

	return &ScreenError{Op: op, Current: s.Screen, Allowed: allowed}
}

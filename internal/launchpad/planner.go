package launchpad

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alkime/repurpose/internal/llm"
	"github.com/alkime/repurpose/pkg/collections"
)

// Planner makes the generative calls behind the launchpad screens.
type Planner interface {
	CheckRelevance(ctx context.Context, in Inputs, topic string) (Relevance, error)
	SuggestTopics(ctx context.Context, in Inputs) ([]TopicOption, error)
	Strategy(ctx context.Context, in Inputs, opt TopicOption) (string, error)
	WriteWeek(ctx context.Context, in Inputs, opt TopicOption, strategy string, strict bool) (string, error)
	ExecutionDocs(ctx context.Context, in Inputs, opt TopicOption, days []Day) (Docs, error)
}

// Sampling temperatures per call.
const (
	relevanceTemperature = 0.2
	topicsTemperature    = 0.9
	strategyTemperature  = 0.5
	writingTemperature   = 0.8
	docsTemperature      = 0.4
)

// OptionsPerSuggestion is how many topic options a suggestion returns.
const OptionsPerSuggestion = 3

// relevanceReply keeps a missing score apart from a zero score.
type relevanceReply struct {
	Relevance string   `json:"relevance" jsonschema:"enum=relevant,enum=irrelevant"`
	Score     *float64 `json:"score"`
	Notes     string   `json:"notes"`
}

type topicList struct {
	Options []TopicOption `json:"options"`
}

// LLMPlanner implements Planner over an llm.Generator.
type LLMPlanner struct {
	gen    llm.Generator
	logger *slog.Logger
	now    func() time.Time
}

// NewLLMPlanner creates a planner backed by gen.
func NewLLMPlanner(gen llm.Generator, logger *slog.Logger) *LLMPlanner {
	if logger == nil {
		logger = slog.Default()
	}

	return &LLMPlanner{gen: gen, logger: logger, now: time.Now}
}

func (p *LLMPlanner) CheckRelevance(ctx context.Context, in Inputs, topic string) (Relevance, error) {
	reply, err := llm.GenerateJSON[relevanceReply](ctx, p.gen, llm.Request{
		System:      relevanceSystemPrompt,
		Prompt:      relevancePrompt(in, topic, p.now()),
		Temperature: relevanceTemperature,
		SchemaName:  "relevance",
	})
	if err != nil {
		return Relevance{}, fmt.Errorf("relevance check: %w", err)
	}
	if reply.Score == nil {
		return Relevance{}, fmt.Errorf("relevance check: no score: %w", llm.ErrEmptyResponse)
	}

	rel := Relevance{
		Score: min(max(*reply.Score, 0), 1),
		Notes: strings.TrimSpace(reply.Notes),
	}
	rel.Relevance = "irrelevant"
	if rel.Relevant() {
		rel.Relevance = "relevant"
	}

	p.logger.Debug("Topic relevance checked", "topic", topic, "score", rel.Score)

	return rel, nil
}

func (p *LLMPlanner) SuggestTopics(ctx context.Context, in Inputs) ([]TopicOption, error) {
	list, err := llm.GenerateJSON[topicList](ctx, p.gen, llm.Request{
		System:      topicsSystemPrompt,
		Prompt:      topicsPrompt(in, p.now()),
		Temperature: topicsTemperature,
		SchemaName:  "topic_options",
	})
	if err != nil {
		return nil, fmt.Errorf("suggest topics: %w", err)
	}

	options := collections.Filter(
		collections.Apply(list.Options, func(opt TopicOption) TopicOption {
			opt.Topic = strings.TrimSpace(opt.Topic)
			return opt
		}),
		func(opt TopicOption) bool { return opt.Topic != "" },
	)

	if len(options) < OptionsPerSuggestion {
		return nil, fmt.Errorf("suggest topics: expected %d options, got %d", OptionsPerSuggestion, len(options))
	}

	return options[:OptionsPerSuggestion], nil
}

func (p *LLMPlanner) Strategy(ctx context.Context, in Inputs, opt TopicOption) (string, error) {
	text, err := p.gen.Generate(ctx, llm.Request{
		System:      strategySystemPrompt,
		Prompt:      strategyPrompt(in, opt),
		Temperature: strategyTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("strategy pass: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("strategy pass: %w", llm.ErrEmptyResponse)
	}

	return text, nil
}

func (p *LLMPlanner) WriteWeek(ctx context.Context, in Inputs, opt TopicOption, strategy string, strict bool) (string, error) {
	system := writingSystemPrompt
	if strict {
		system += strictWeekReminder
	}

	text, err := p.gen.Generate(ctx, llm.Request{
		System:      system,
		Prompt:      writingPrompt(in, opt, strategy),
		Temperature: writingTemperature,
		MaxTokens:   llm.DefaultMaxTokens * 2,
	})
	if err != nil {
		return "", fmt.Errorf("writing pass: %w", err)
	}

	return text, nil
}

func (p *LLMPlanner) ExecutionDocs(ctx context.Context, in Inputs, opt TopicOption, days []Day) (Docs, error) {
	docs, err := llm.GenerateJSON[Docs](ctx, p.gen, llm.Request{
		System:      docsSystemPrompt,
		Prompt:      docsPrompt(in, opt, days),
		Temperature: docsTemperature,
		SchemaName:  "execution_docs",
	})
	if err != nil {
		return Docs{}, fmt.Errorf("execution docs: %w", err)
	}

	docs = Docs{
		Calendar:  strings.TrimSpace(docs.Calendar),
		Checklist: strings.TrimSpace(docs.Checklist),
		Scorecard: strings.TrimSpace(docs.Scorecard),
	}
	if docs.Calendar == "" && docs.Checklist == "" && docs.Scorecard == "" {
		return Docs{}, fmt.Errorf("execution docs: %w", llm.ErrEmptyResponse)
	}

	return docs, nil
}

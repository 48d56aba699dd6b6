package launchpad

import (
	"fmt"
	"strings"
	"time"
)

const relevanceSystemPrompt = `You check whether a content topic fits the current social media
and content landscape. Score relevance from 0 to 1 and state brief reasons.
If the score is below 0.5, suggest a short alternative angle in the notes.

Return JSON only, shaped exactly like:
{"relevance": "relevant" or "irrelevant", "score": <number from 0 to 1>, "notes": "<brief reasons>"}`

const topicsSystemPrompt = `You are a content strategist. Produce exactly 3 Topic+Angle options
for a 7-day content series. For each option give: topic, angle, a one-sentence
rationale and a small set of micro-hashtags.

Return JSON only, shaped exactly like:
{"options": [{"topic": "...", "angle": "...", "rationale": "...", "hashtags": ["#one", "#two"]}]}`

const strategySystemPrompt = `You are the strategist of a 7-day consistency launchpad.
Plan a one-week content series: the arc across the seven days, the purpose of
each day, the voice to keep and how each platform is used. Be concise and
practical. Do NOT write the posts themselves.`

const writingSystemPrompt = `You are a content writer. Write a 7-day content series following
the strategy you are given. Use exactly this format for every day, in order
from Day 1 to Day 7, with nothing before Day 1:

Day 1
Hook: <single attention-grabbing line>
Script:
<full script, at most 220 words>
CTA: <one short call to action>
Hashtags: #one #two #three #four #five`

const strictWeekReminder = `

Your previous answer could not be split into days. Output ONLY the seven
day blocks, each starting with a line "Day N" (N from 1 to 7) and containing
the Hook:, Script:, CTA: and Hashtags: labels.`

const docsSystemPrompt = `You turn a finished 7-day content series into an execution pack:
a weekly posting calendar, a posting checklist and a consistency scorecard the
creator fills in during the week. Plain text inside each field, no markdown tables.

Return JSON only, shaped exactly like:
{"calendar": "<posting calendar>", "checklist": "<posting checklist>", "scorecard": "<consistency scorecard>"}`

func describeInputs(in Inputs) string {
	return fmt.Sprintf("Niche: %s\nGoal: %s\nStyle: %s\nPlatforms: %s\nTime per day: %s",
		in.Niche, in.Goal, in.Style, strings.Join(in.Platforms, ", "), in.TimePerDay)
}

func relevancePrompt(in Inputs, topic string, asOf time.Time) string {
	return fmt.Sprintf("%s\n\nCandidate topic: %s\n\nJudge relevance as on %s.",
		describeInputs(in), topic, asOf.Format("02 Jan 2006"))
}

func topicsPrompt(in Inputs, asOf time.Time) string {
	return fmt.Sprintf("%s\n\nUse current trends as on %s.", describeInputs(in), asOf.Format("02 Jan 2006"))
}

func strategyPrompt(in Inputs, opt TopicOption) string {
	return fmt.Sprintf("%s\n\nChosen topic: %s\nChosen angle: %s", describeInputs(in), opt.Topic, opt.Angle)
}

func writingPrompt(in Inputs, opt TopicOption, strategy string) string {
	return fmt.Sprintf("%s\n\nChosen topic: %s\nChosen angle: %s\n\nSTRATEGY:\n%s",
		describeInputs(in), opt.Topic, opt.Angle, strategy)
}

func docsPrompt(in Inputs, opt TopicOption, days []Day) string {
	var sb strings.Builder

	sb.WriteString(describeInputs(in))
	fmt.Fprintf(&sb, "\n\nTopic: %s\nAngle: %s\n", opt.Topic, opt.Angle)
	for _, d := range days {
		fmt.Fprintf(&sb, "\nDay %d\nHook: %s\nCTA: %s\n", d.Number, d.Hook, d.CTA)
	}

	return sb.String()
}

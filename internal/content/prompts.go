package content

import (
	"fmt"
	"strings"
)

// captainExcerptLimit is how much of the source the Captain sees.
const captainExcerptLimit = 500

// CaptainSystemPrompt frames the strategy stage.
const CaptainSystemPrompt = `You are the 'Captain' of the Content Repurposing System.
Analyze the user profile and content and structure a strategic 'Order Block':
- Who the creator is and who they speak to
- The core message worth retelling
- The objective and how each target platform serves it
- Tone and style guardrails
Output a concise, structured strategy summary in markdown.`

// SousChefSystemPrompt frames the blueprint stage.
const SousChefSystemPrompt = `You are the 'Sous Chef'. Create a detailed Production Prompt:
a numbered list of instructions a writer can follow without any other context.
- One section per target platform with format, length and structure
- Hooks, calls to action and keywords to weave in
- What to keep from the original content and what to leave out
Do NOT write the final content yourself.`

// ChefSystemPrompt frames the final drafting stage.
const ChefSystemPrompt = `You are the 'Chef'. Write human-like, nuanced content deliverables
exactly following the instructions you are given.
- One clearly headed section per platform (## LinkedIn, ## Blog Post, ...)
- Output clean markdown, ready to copy and post
- Do NOT explain what you did or add commentary around the deliverables`

// CaptainPrompt builds the user turn for the Captain.
func CaptainPrompt(in Input) string {
	return fmt.Sprintf("User Profile: %s\nContent: %s", in.Profile.Summary(), excerpt(in.Content, captainExcerptLimit))
}

// SousChefPrompt builds the user turn for the Sous Chef.
func SousChefPrompt(in Input, orderBlock string) string {
	return fmt.Sprintf(`ORDER BLOCK:
%s

ORIGINAL CONTENT:
%s

Output detailed instructions for writing posts for: %s.`,
		orderBlock, in.Content, strings.Join(in.Profile.Platforms, ", "))
}

// ChefPrompt builds the user turn for the Chef.
func ChefPrompt(blueprint string) string {
	return "INSTRUCTIONS:\n" + blueprint
}

// excerpt cuts s to at most limit runes, marking the cut with an ellipsis.
func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}

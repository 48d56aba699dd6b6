package week

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alkime/repurpose/internal/launchpad"
	"github.com/alkime/repurpose/internal/tui/components/keyhelp"
	"github.com/alkime/repurpose/internal/tui/style"
	"github.com/alkime/repurpose/pkg/collections"
)

const guideText = `How it works:
  1. Tell us your niche, goal and style.
  2. Bring a topic or let AI suggest three.
  3. Get a 7-day plan, revealed one day at a time.
  4. Finish with a calendar, checklist and scorecard.`

var fieldNames = [fieldCount]string{"Niche", "Goal", "Style", "Time per day", "Platforms"}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(style.Title.Render("RizenAi 7-Day Consistency Launchpad"))
	sb.WriteString("\n\n")

	if m.busy {
		sb.WriteString(m.spinner.View())
		sb.WriteString("\n")

		return sb.String()
	}

	switch m.session.Screen {
	case launchpad.ScreenWelcome:
		m.viewWelcome(&sb)
	case launchpad.ScreenInputs:
		m.viewInputs(&sb)
	case launchpad.ScreenChooseTopic:
		m.viewChooseTopic(&sb)
	case launchpad.ScreenRelevance:
		m.viewRelevance(&sb)
	case launchpad.ScreenTopicOptions:
		m.viewTopicOptions(&sb)
	case launchpad.ScreenDays:
		m.viewDays(&sb)
	case launchpad.ScreenExecutionDocs:
		m.viewDocs(&sb)
	}

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render("✗ " + userError(m.err)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(keyhelp.Render(m.keys.Quit, " "))
	sb.WriteString(keyhelp.Render(m.keys.ForceQuit, "\n"))

	return sb.String()
}

func (m *Model) viewWelcome(sb *strings.Builder) {
	sb.WriteString(style.Subtitle.Render("Turn your niche into a week of ready-to-post content."))
	sb.WriteString("\n\n")
	sb.WriteString(keyhelp.Line(m.keys.Confirm, m.keys.Guide))
	sb.WriteString("\n")
}

func (m *Model) viewInputs(sb *strings.Builder) {
	if m.session.ShowGuide {
		sb.WriteString(style.Muted.Render(guideText))
		sb.WriteString("\n\n")
	}

	for field := range fieldCount {
		marker := "  "
		label := style.Label.Render(fieldNames[field] + ": ")
		if field == m.field {
			marker = style.Bullet.Render("> ")
		}

		sb.WriteString(marker)
		sb.WriteString(label)

		switch field {
		case fieldNiche:
			sb.WriteString(m.input.View())
		case fieldPlatforms:
			sb.WriteString(m.viewPlatforms(field == m.field))
		default:
			sb.WriteString("‹ " + fieldOptions(field)[m.choice[field]] + " ›")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(keyhelp.Line(m.keys.NextField, m.keys.Left, m.keys.Right, m.keys.Toggle))
	sb.WriteString("\n")
	sb.WriteString(keyhelp.Render(m.keys.Confirm))
	sb.WriteString("\n")
}

func (m *Model) viewPlatforms(focused bool) string {
	items := make([]string, len(launchpad.Platforms))
	for i, p := range launchpad.Platforms {
		box := "[ ]"
		if slices.Contains(m.platforms, p) {
			box = "[x]"
		}

		item := box + " " + p
		if focused && i == m.platformPos {
			item = style.Selected.Render(item)
		}
		items[i] = item
	}

	return strings.Join(items, "  ")
}

func (m *Model) viewChooseTopic(sb *strings.Builder) {
	sb.WriteString(style.Subtitle.Render("Niche: " + m.session.Inputs.Niche))
	sb.WriteString("\n\n")
	sb.WriteString(style.Label.Render("Your topic: "))
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(style.Muted.Render("Leave it blank and press enter to get 3 AI topic options."))
	sb.WriteString("\n\n")
	sb.WriteString(keyhelp.Render(m.keys.Confirm))
	sb.WriteString("\n")
}

func (m *Model) viewRelevance(sb *strings.Builder) {
	rel := m.session.Relevance

	sb.WriteString(style.Label.Render("Topic: "))
	sb.WriteString(m.session.UserTopic)
	sb.WriteString("\n\n")

	if rel != nil {
		verdict := style.Success.Render("✓ This topic fits your niche right now.")
		if !rel.Relevant() {
			verdict = style.Warning.Render("! This topic may not land with your audience.")
		}

		sb.WriteString(verdict)
		sb.WriteString("\n")
		sb.WriteString(style.Muted.Render(fmt.Sprintf("Relevance score: %.0f%%", rel.Score*100)))
		sb.WriteString("\n")
		if rel.Notes != "" {
			sb.WriteString(style.Subtitle.Render(rel.Notes))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(keyhelp.Line(m.keys.Keep, m.keys.Suggest, m.keys.Restart))
	sb.WriteString("\n")
}

func (m *Model) viewTopicOptions(sb *strings.Builder) {
	sb.WriteString(style.Subtitle.Render("Pick the topic and angle for your week."))
	sb.WriteString("\n\n")

	for i, opt := range m.session.Options {
		line := fmt.Sprintf("%d. %s · %s", i+1, opt.Topic, opt.Angle)
		if i == m.cursor {
			sb.WriteString(style.Bullet.Render("> "))
			sb.WriteString(style.Selected.Render(line))
		} else {
			sb.WriteString("  ")
			sb.WriteString(line)
		}
		sb.WriteString("\n")

		if opt.Rationale != "" {
			sb.WriteString("     ")
			sb.WriteString(style.Muted.Render(opt.Rationale))
			sb.WriteString("\n")
		}
		if len(opt.Hashtags) > 0 {
			sb.WriteString("     ")
			sb.WriteString(style.Muted.Render(strings.Join(opt.Hashtags, " ")))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(keyhelp.Line(m.keys.Up, m.keys.Down, m.keys.Confirm, m.keys.Regenerate, m.keys.Restart))
	sb.WriteString("\n")
}

func (m *Model) viewDays(sb *strings.Builder) {
	revealed, total := m.reveal.Cap()

	if m.session.Selected != nil {
		sb.WriteString(style.Label.Render("Week: "))
		sb.WriteString(m.session.Selected.Topic + " · " + m.session.Selected.Angle)
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.progress.ViewAs(float64(m.reveal.Read()) / float64(total)))
	sb.WriteString(" ")
	sb.WriteString(style.Progress.Render(fmt.Sprintf("Day %d of %d", revealed, total)))
	sb.WriteString("\n\n")

	sb.WriteString(strings.Join(collections.Apply(m.session.VisibleDays(), renderDay), ""))

	if m.session.WeekComplete() {
		sb.WriteString(style.Success.Render("✓ Your week is ready."))
		sb.WriteString("\n\n")
		sb.WriteString(keyhelp.Line(m.keys.Docs, m.keys.Restart))
	} else {
		sb.WriteString(keyhelp.Line(m.keys.Reveal, m.keys.Restart))
	}
	sb.WriteString("\n")
}

func (m *Model) viewDocs(sb *strings.Builder) {
	if docs := m.session.Docs; docs != nil {
		sb.WriteString(strings.Join(collections.ApplyVariadic(renderDoc,
			[2]string{"Posting calendar", docs.Calendar},
			[2]string{"Daily checklist", docs.Checklist},
			[2]string{"Weekly scorecard", docs.Scorecard},
		), ""))
	}

	if m.saved != "" {
		sb.WriteString(style.Label.Render("Saved: "))
		sb.WriteString(style.Muted.Render(m.saved))
		sb.WriteString("\n\n")
	}

	sb.WriteString(keyhelp.Line(m.keys.Save, m.keys.Restart))
	sb.WriteString("\n")
}

func renderDay(d launchpad.Day) string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render(fmt.Sprintf("Day %d", d.Number)))
	sb.WriteString("\n")
	sb.WriteString(style.Label.Render("Hook: "))
	sb.WriteString(d.Hook)
	sb.WriteString("\n")
	if d.Script != "" {
		sb.WriteString(d.Script)
		sb.WriteString("\n")
	}
	if d.CTA != "" {
		sb.WriteString(style.Label.Render("CTA: "))
		sb.WriteString(d.CTA)
		sb.WriteString("\n")
	}
	if len(d.Hashtags) > 0 {
		sb.WriteString(style.Muted.Render(strings.Join(d.Hashtags, " ")))
	}

	return style.Card.Render(strings.TrimRight(sb.String(), "\n")) + "\n"
}

func renderDoc(doc [2]string) string {
	return style.Card.Render(style.Title.Render(doc[0])+"\n"+doc[1]) + "\n"
}

package launchpad

import (
	"fmt"
	"strings"
)

// Filename is the download name of the current plan's pack.
func (s *Session) Filename() string {
	return fmt.Sprintf("Week_%d_Content_Pack.txt", max(s.PlanCount, 1))
}

// Export renders the plain-text content pack. It is only available on the
// execution docs screen.
func (s *Session) Export() (string, error) {
	if err := s.expect("export", ScreenExecutionDocs); err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString("=== RizenAi 7-Day Consistency Launchpad ===\n")
	fmt.Fprintf(&sb, "Topic: %s\n", s.Selected.Topic)
	fmt.Fprintf(&sb, "Angle: %s\n", s.Selected.Angle)
	sb.WriteString("\n---\n7 Day Outputs\n\n")

	for _, d := range s.Days {
		fmt.Fprintf(&sb, "Day %d\nHOOK: %s\nSCRIPT:\n%s\nCTA: %s\nHASHTAGS: %s\n---\n\n",
			d.Number, d.Hook, d.Script, d.CTA, strings.Join(d.Hashtags, " "))
	}

	sb.WriteString("---\nEXECUTION DOCS\n\n")
	if s.Docs != nil {
		sb.WriteString(s.Docs.Calendar)
		sb.WriteString("\n\n")
		sb.WriteString(s.Docs.Checklist)
		sb.WriteString("\n\n")
		sb.WriteString(s.Docs.Scorecard)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

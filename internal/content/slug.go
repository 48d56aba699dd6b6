package content

import (
	"regexp"
	"strings"
)

// DefaultFilename is used when no slug can be derived.
const DefaultFilename = "rizenai_content.md"

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// GenerateSlug converts a title to a URL-friendly slug.
// Example: "Ada Lovelace" -> "ada-lovelace"
func GenerateSlug(title string) string {
	// Convert to lowercase
	slug := strings.ToLower(title)

	// Replace spaces with hyphens
	slug = strings.ReplaceAll(slug, " ", "-")

	// Remove special characters (keep alphanumeric and hyphens)
	slug = nonSlugChars.ReplaceAllString(slug, "")

	// Collapse multiple hyphens to single hyphen
	slug = hyphenRuns.ReplaceAllString(slug, "-")

	// Trim hyphens from start and end
	return strings.Trim(slug, "-")
}

// Filename is the download name for a run made for the given creator.
func Filename(p Profile) string {
	slug := GenerateSlug(p.Name)
	if slug == "" {
		return DefaultFilename
	}

	return slug + "-repurposed.md"
}

// Markdown renders the final deliverables as a downloadable document.
func (r *Result) Markdown(p Profile) string {
	var sb strings.Builder

	sb.WriteString("# Repurposed content")
	if p.Name != "" {
		sb.WriteString(" for ")
		sb.WriteString(p.Name)
	}
	sb.WriteString("\n\n")
	sb.WriteString(r.Final)
	sb.WriteString("\n")

	return sb.String()
}

// Filename is the download name for this result.
func (r *Result) Filename(p Profile) string {
	return Filename(p)
}

package content

import (
	"fmt"
	"slices"
	"strings"
)

// Defaults applied to blank optional profile fields.
const (
	DefaultObjective = "Reach More People (Audience Growth)"
	DefaultTone      = "Informative and Professional"
)

// Platforms lists the output formats the Chef can write for.
var Platforms = []string{
	"LinkedIn",
	"Twitter/X Thread",
	"Instagram Reel Script",
	"Blog Post",
	"Email Newsletter",
	"YouTube Short",
}

// DefaultPlatforms is used when the creator picks none.
var DefaultPlatforms = []string{"LinkedIn", "Twitter/X Thread"}

// Profile describes the creator the content is repurposed for.
type Profile struct {
	Name       string   `json:"name"`
	Profession string   `json:"profession"`
	Objective  string   `json:"objective"`
	Tone       string   `json:"tone"`
	ExtraInfo  string   `json:"extra_info"`
	Platforms  []string `json:"platforms"`
}

// Input is everything a pipeline run needs.
type Input struct {
	Profile Profile `json:"profile"`
	Content string  `json:"content"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please fill in all mandatory fields: %s", strings.Join(e.Fields, ", "))
}

// Normalize trims every field and fills blank optional fields with defaults.
func (in Input) Normalize() Input {
	p := in.Profile
	out := Input{
		Profile: Profile{
			Name:       strings.TrimSpace(p.Name),
			Profession: strings.TrimSpace(p.Profession),
			Objective:  strings.TrimSpace(p.Objective),
			Tone:       strings.TrimSpace(p.Tone),
			ExtraInfo:  strings.TrimSpace(p.ExtraInfo),
		},
		Content: strings.TrimSpace(in.Content),
	}

	if out.Profile.Objective == "" {
		out.Profile.Objective = DefaultObjective
	}
	if out.Profile.Tone == "" {
		out.Profile.Tone = DefaultTone
	}

	for _, platform := range p.Platforms {
		platform = strings.TrimSpace(platform)
		if platform != "" && !slices.Contains(out.Profile.Platforms, platform) {
			out.Profile.Platforms = append(out.Profile.Platforms, platform)
		}
	}
	if len(out.Profile.Platforms) == 0 {
		out.Profile.Platforms = slices.Clone(DefaultPlatforms)
	}

	return out
}

// Validate checks the mandatory fields (name, profession, content) and the
// platform list. All problems are reported together.
func (in Input) Validate() error {
	var fields []string

	if strings.TrimSpace(in.Profile.Name) == "" {
		fields = append(fields, "name")
	}
	if strings.TrimSpace(in.Profile.Profession) == "" {
		fields = append(fields, "profession")
	}
	if strings.TrimSpace(in.Content) == "" {
		fields = append(fields, "content")
	}
	for _, platform := range in.Profile.Platforms {
		if !slices.Contains(Platforms, strings.TrimSpace(platform)) {
			fields = append(fields, "platforms")
			break
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

// Summary renders the profile as the single line the Captain reads.
func (p Profile) Summary() string {
	return fmt.Sprintf("Name: %s, Profession: %s, Objective: %s, Tone: %s, Extra: %s, Platforms: %s",
		p.Name, p.Profession, p.Objective, p.Tone, p.ExtraInfo, strings.Join(p.Platforms, ", "))
}

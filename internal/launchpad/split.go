package launchpad

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// dayHeader matches "Day 3", "## Day 3: ...", "**Day 3**" and similar.
	// A heading "#" needs a space after it so "#Day3" stays a hashtag, and
	// anything after the number must follow a separator so a script line
	// like "Day 3 is when..." is not a header.
	dayHeader = regexp.MustCompile(`(?im)^[ \t>*_-]*(?:#{1,6}[ \t]+)?[*_]*day[ \t]*(\d{1,2})[*_]*[ \t]*(?:[:.)|\x{2013}\x{2014}-].*)?$`)
	// fieldLabel matches "Hook:", "**CTA:**", "- Hashtags:" at line start.
	fieldLabel = regexp.MustCompile(`(?i)^[#*_>\s-]*(hook|script|cta|call to action|hashtags)\s*[*_]*\s*:\s*[*_]*\s*(.*)$`)
)

// SplitWeek cuts the writing pass into exactly seven days numbered 1..7.
// Header matches that do not continue the 1..7 sequence stay in the body of
// the current day.
func SplitWeek(text string) ([]Day, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var headers [][]int
	for _, h := range dayHeader.FindAllStringSubmatchIndex(text, -1) {
		n, err := strconv.Atoi(text[h[2]:h[3]])
		if err != nil || n != len(headers)+1 {
			continue
		}
		headers = append(headers, h)
	}

	if len(headers) != DaysPerWeek {
		return nil, fmt.Errorf("%w: found %d of %d days in order", ErrMalformedWeek, len(headers), DaysPerWeek)
	}

	days := make([]Day, 0, DaysPerWeek)
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		day := parseDay(i+1, text[h[1]:end])
		if day.Script == "" && day.Hook == "" {
			return nil, fmt.Errorf("%w: day %d is empty", ErrMalformedWeek, i+1)
		}
		days = append(days, day)
	}

	return days, nil
}

func parseDay(n int, body string) Day {
	day := Day{Number: n}

	var current string
	var script []string
	var loose []string

	for _, line := range strings.Split(body, "\n") {
		if m := fieldLabel.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(m[1])
			value := strings.TrimSpace(m[2])

			switch current {
			case "hook":
				day.Hook = value
			case "cta", "call to action":
				day.CTA = value
			case "hashtags":
				day.Hashtags = append(day.Hashtags, parseHashtags(value)...)
			case "script":
				if value != "" {
					script = append(script, value)
				}
			}

			continue
		}

		switch current {
		case "script":
			script = append(script, line)
		case "hashtags":
			day.Hashtags = append(day.Hashtags, parseHashtags(line)...)
		case "":
			loose = append(loose, line)
		}
	}

	day.Script = strings.TrimSpace(strings.Join(script, "\n"))

	// Unlabelled day: first line is the hook, the rest is the script.
	if day.Hook == "" && day.Script == "" {
		body := strings.TrimSpace(strings.Join(loose, "\n"))
		hook, rest, _ := strings.Cut(body, "\n")
		day.Hook = strings.TrimSpace(hook)
		day.Script = strings.TrimSpace(rest)
	}

	return day
}

func parseHashtags(s string) []string {
	var tags []string

	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' }) {
		f = strings.Trim(f, "*_")
		if f == "" || f == "#" {
			continue
		}
		if !strings.HasPrefix(f, "#") {
			f = "#" + f
		}
		tags = append(tags, f)
	}

	return tags
}

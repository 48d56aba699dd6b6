package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// ErrNoJSON is returned when model output contains no JSON value at all.
var ErrNoJSON = errors.New("no JSON object found in model output")

// DecodeJSON unmarshals model output into v. Models like to wrap JSON in
// code fences or prose, so when the text is not valid JSON as a whole the
// first top-level object (or array, for slice targets) is extracted.
func DecodeJSON(text string, v any) error {
	s := strings.TrimSpace(stripFences(text))
	if s == "" {
		return fmt.Errorf("%w (empty output)", ErrNoJSON)
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	if isSliceTarget(v) {
		if sub, ok := enclosed(s, '[', ']'); ok {
			if err := json.Unmarshal([]byte(sub), v); err != nil {
				return fmt.Errorf("failed to unmarshal extracted JSON array (len=%d): %w", len(sub), err)
			}

			return nil
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	// An opened object that is never closed means the output was cut off.
	if start != -1 && (end == -1 || end < start) {
		return io.ErrUnexpectedEOF
	}
	if start == -1 {
		return fmt.Errorf("%w (len=%d)", ErrNoJSON, len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}

	return nil
}

// IsRecoverable reports whether a decode failure is worth a second attempt:
// truncated output or output with no JSON in it.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrNoJSON) {
		return true
	}

	s := strings.ToLower(err.Error())

	return strings.Contains(s, "unexpected end of json input") ||
		strings.Contains(s, "unexpected eof")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// drop the opening fence line (``` or ```json)
	if i := strings.IndexByte(s, '\n'); i != -1 {
		s = s[i+1:]
	} else {
		return ""
	}

	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

func enclosed(s string, open, closing byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closing)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}

	return s[start : end+1], true
}

func isSliceTarget(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	return rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array)
}

package llm

import (
	"context"
	"fmt"
	"unicode/utf8"
)

const completeJSONReminder = "\n\nIMPORTANT: Ensure the JSON is complete and valid. " +
	"If needed, shorten text fields to fit."

// GenerateJSON runs req against g and decodes the output into T. When the
// first output is truncated or carries no JSON, a second attempt is made
// with a doubled token budget and an explicit reminder.
func GenerateJSON[T any](ctx context.Context, g Generator, req Request) (T, error) {
	var out T

	if req.Schema == nil {
		req.Schema = GenerateSchema[T]()
	}

	var lastOut string
	for attempt := 0; attempt < 2; attempt++ {
		call := req
		if attempt == 1 {
			call.MaxTokens = req.maxTokens() * 2
			call.System = req.System + completeJSONReminder
		}

		text, err := g.Generate(ctx, call)
		if err != nil {
			return out, err
		}

		lastOut = text
		var decoded T
		if err := DecodeJSON(text, &decoded); err != nil {
			if attempt == 0 && IsRecoverable(err) {
				continue
			}

			return out, fmt.Errorf("decode %s: %w (model_output_prefix=%q)", req.schemaName(), err, truncate(lastOut, 200))
		}

		return decoded, nil
	}

	return out, fmt.Errorf("decode %s: no usable output after retry", req.schemaName())
}

// truncate keeps the first limit runes of s.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	return string([]rune(s)[:limit]) + "…"
}

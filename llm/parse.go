package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Invoke sends the prompt and decodes the response into T.
//
// Models often wrap JSON in markdown fences or prose, so the decoder first
// tries the raw text, then the first balanced JSON object or array found in
// it. Any failure is returned as a *GenerationError carrying the raw output;
// callers are expected to fall back to a deterministic default.
func Invoke[T any](ctx context.Context, c Client, prompt string) (T, error) {
	var zero T

	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return zero, &GenerationError{Op: "invoke.complete", Err: err}
	}

	payload := extractJSON(raw)
	if payload == "" {
		return zero, &GenerationError{Op: "invoke.parse", Raw: raw, Err: errors.New("no JSON found in response")}
	}

	var out T
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return zero, &GenerationError{Op: "invoke.parse", Raw: raw, Err: err}
	}
	return out, nil
}

// extractJSON locates the JSON document inside model output.
//
// Handles three shapes: bare JSON, JSON inside a ```json fence, and JSON
// surrounded by prose. Returns "" when no candidate is found.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	// Strip a markdown fence if the whole response is wrapped in one.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return text
	}

	// Fall back to the outermost object or array embedded in prose.
	objStart := strings.Index(text, "{")
	objEnd := strings.LastIndex(text, "}")
	arrStart := strings.Index(text, "[")
	arrEnd := strings.LastIndex(text, "]")

	if objStart >= 0 && objEnd > objStart {
		if arrStart < 0 || objStart < arrStart {
			return text[objStart : objEnd+1]
		}
	}
	if arrStart >= 0 && arrEnd > arrStart {
		return text[arrStart : arrEnd+1]
	}
	return ""
}

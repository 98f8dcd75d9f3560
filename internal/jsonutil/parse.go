// Package jsonutil extracts and parses JSON from model responses that may be
// wrapped in markdown code fences or surrounded by prose. Even with a
// schema-constrained request the response text is treated as untrusted.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a ```json ... ``` (or plain ``` ... ```) wrapper from
// text. Returns the inner content, or the original text when no fence is found.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// ExtractObject returns the JSON object or array embedded in text, using the
// first opening delimiter and the last matching closing one.
func ExtractObject(text string) (string, error) {
	text = strings.TrimSpace(text)

	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")
	if objIdx == -1 && arrIdx == -1 {
		return "", fmt.Errorf("no JSON content found")
	}

	start, closer := objIdx, "}"
	if objIdx == -1 || (arrIdx != -1 && arrIdx < objIdx) {
		start, closer = arrIdx, "]"
	}

	text = text[start:]
	end := strings.LastIndex(text, closer)
	if end == -1 {
		return "", fmt.Errorf("no closing %s found", closer)
	}
	return text[:end+1], nil
}

// Parse strips markdown fences from raw model output, extracts the embedded
// JSON, and unmarshals it into T.
func Parse[T any](raw string) (T, error) {
	var zero T

	jsonStr, err := ExtractObject(StripFences(raw))
	if err != nil {
		return zero, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return result, nil
}

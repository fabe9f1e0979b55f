package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	jsonFenceRe    = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	genericFenceRe = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
)

// DecodeAIJSON decodes model output into a generic JSON value.
// Numbers are kept as json.Number so integer checks stay exact.
//
// The input is decoded as-is first. If that fails and the text is wrapped in a
// markdown code block (```json ... ```), the block body is decoded instead.
// Nothing else is repaired: trailing text, unquoted keys and similar damage are
// reported as errors.
func DecodeAIJSON(input string) (any, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty input")
	}

	v, err := decodeStrict(input)
	if err == nil {
		return v, nil
	}

	if extracted := extractFromMarkdown(input); extracted != "" {
		if v, fenceErr := decodeStrict(extracted); fenceErr == nil {
			return v, nil
		}
	}

	return nil, fmt.Errorf("failed to parse JSON from input %q: %w", truncateString(input, 100), err)
}

func decodeStrict(input string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

// extractFromMarkdown extracts JSON from markdown code blocks
// Supports: ```json {...} ```, ```{...}```, or ```\n{...}\n```
func extractFromMarkdown(input string) string {
	if matches := jsonFenceRe.FindStringSubmatch(input); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	if matches := genericFenceRe.FindStringSubmatch(input); len(matches) > 1 {
		content := strings.TrimSpace(matches[1])
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			return content
		}
	}

	return ""
}

// truncateString truncates a string to maxLen runes
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// CompactJSON returns the compact form of a JSON document, or the input
// unchanged when it is not valid JSON. Used to keep upstream bodies on one log line.
func CompactJSON(input []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, input); err != nil {
		return string(input)
	}
	return buf.String()
}

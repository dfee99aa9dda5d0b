// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse extracts a JSON object from free-form LLM completions.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Strategy names one decoding attempt.
type Strategy string

const (
	StrategyDirect    Strategy = "direct"
	StrategyJSONFence Strategy = "json_fence"
	StrategyAnyFence  Strategy = "any_fence"
	StrategyBraces    Strategy = "braces"
)

// Strategies lists the attempts in the order they are tried.
var Strategies = []Strategy{StrategyDirect, StrategyJSONFence, StrategyAnyFence, StrategyBraces}

// PreviewLen is the number of characters of the raw completion kept in a ParseError.
const PreviewLen = 200

var (
	jsonFencePattern = regexp.MustCompile("(?is)```json[ \t]*\\r?\\n?(.*?)```")
	fencePattern     = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \t]*\\r?\\n?(.*?)```")
)

// ParseError reports that no strategy produced a JSON object.
type ParseError struct {
	// Preview holds the first PreviewLen characters of the completion.
	Preview string
	Tried   []Strategy
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON object found in completion (tried %d strategies): %q", len(e.Tried), e.Preview)
}

// JSON decodes the first JSON object it can find in raw.
func JSON(raw string) (map[string]any, error) {
	obj, _, err := JSONWithStrategy(raw)
	return obj, err
}

// JSONWithStrategy is JSON but also reports which strategy succeeded.
// Strategies run in a fixed order: the whole trimmed text, the first
// ```json fence, the first untagged fence, then the span from the first
// '{' to the last '}'. Only objects count as a match; arrays and scalars
// fall through to the next strategy.
func JSONWithStrategy(raw string) (map[string]any, Strategy, error) {
	for _, s := range Strategies {
		candidate, ok := extract(s, raw)
		if !ok {
			continue
		}
		if obj, ok := decodeObject(candidate); ok {
			return obj, s, nil
		}
	}
	return nil, "", &ParseError{Preview: preview(raw), Tried: Strategies}
}

func extract(s Strategy, raw string) (string, bool) {
	switch s {
	case StrategyDirect:
		return strings.TrimSpace(raw), true
	case StrategyJSONFence:
		return firstGroup(jsonFencePattern, raw)
	case StrategyAnyFence:
		return firstUntagged(raw)
	case StrategyBraces:
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return "", false
		}
		return raw[start : end+1], true
	}
	return "", false
}

func firstGroup(re *regexp.Regexp, raw string) (string, bool) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// firstUntagged returns the body of the first fence with no language tag.
// Fences are paired in order, so a tagged block's closing marker is never
// taken as an opening one.
func firstUntagged(raw string) (string, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		if m[1] == "" {
			return strings.TrimSpace(m[2]), true
		}
	}
	return "", false
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, obj != nil
}

func preview(raw string) string {
	r := []rune(raw)
	if len(r) <= PreviewLen {
		return raw
	}
	return string(r[:PreviewLen])
}

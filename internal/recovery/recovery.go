// Package recovery turns loosely-structured LLM replies into parsed JSON
// values. Models wrap JSON in code fences, append commentary after the
// closing bracket, or sprinkle decorative emoji that break the parser; the
// second tier targets exactly those failure modes instead of giving up on
// the first json.Unmarshal error.
package recovery

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/telegram-digest-bot/internal/stats"
)

var (
	// Spacing artifacts between CJK characters (and between CJK and digits)
	// left behind once decorative glyphs are removed.
	hanGap      = regexp.MustCompile(`(\p{Han})\s+(\p{Han})`)
	hanDigitGap = regexp.MustCompile(`(\p{Han})\s+([0-9])`)
	digitHanGap = regexp.MustCompile(`([0-9])\s+(\p{Han})`)
)

// Array recovers a JSON array of objects from raw LLM output.
// Returns false when both tiers fail.
func Array(raw string) ([]map[string]any, bool) {
	sliced := slice(stripFence(raw), '[', ']')

	if items, ok := parseArray(sliced); ok {
		return items, true
	}

	// Repair tier: strip emoji, re-slice, fix spacing artifacts
	cleaned := slice(stats.StripEmojis(sliced), '[', ']')
	cleaned = collapseGaps(cleaned)
	return parseArray(cleaned)
}

// Object recovers a single JSON object from raw LLM output.
// Returns false when both tiers fail.
func Object(raw string) (map[string]any, bool) {
	sliced := slice(stripFence(raw), '{', '}')

	if obj, ok := parseObject(sliced); ok {
		return obj, true
	}

	cleaned := slice(stats.StripEmojis(sliced), '{', '}')
	cleaned = collapseGaps(cleaned)
	return parseObject(cleaned)
}

// stripFence removes a single surrounding markdown code fence, including an
// optional "json" language tag.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		parts := strings.Split(s, "```")
		if len(parts) >= 2 {
			s = parts[1]
			s = strings.TrimPrefix(s, "json")
		}
	}
	return strings.TrimSpace(s)
}

// slice cuts the text down to the span between the first opening bracket and
// the last closing bracket, tolerating prose before and after the JSON.
func slice(s string, open, closing byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closing)
	if start != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

func collapseGaps(s string) string {
	s = hanGap.ReplaceAllString(s, "$1$2")
	s = hanDigitGap.ReplaceAllString(s, "$1$2")
	s = digitHanGap.ReplaceAllString(s, "$1$2")
	return s
}

func parseArray(s string) ([]map[string]any, bool) {
	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}

	// Every element must be an object; anything else means the model
	// returned some other shape and the whole reply is unusable.
	items := make([]map[string]any, 0, len(raw))
	for _, elem := range raw {
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, false
		}
		items = append(items, obj)
	}
	return items, true
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}

package services

import (
	"regexp"
	"strings"
)

// LLMs wrap JSON in markdown fences and leave trailing commas often
// enough that parsing raw responses directly is not viable.
var (
	// fencedJSONPattern matches a JSON object inside ```json ... ``` fences.
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// bareJSONPattern matches the outermost JSON object (greedy fallback).
	bareJSONPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// extractJSON pulls a JSON object out of an LLM response, stripping
// markdown fences and trailing commas. Returns "" when no object is found.
func extractJSON(content string) string {
	var raw string
	if m := fencedJSONPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = bareJSONPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}
	raw = trailingCommaPattern.ReplaceAllString(raw, "$1")
	return strings.TrimSpace(raw)
}

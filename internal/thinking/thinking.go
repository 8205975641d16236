// Package thinking splits a model's raw output into an exposed-reasoning
// segment and the actual response. Models wrap reasoning in a handful of
// delimiter conventions; the first matching convention wins.
package thinking

import (
	"regexp"
	"strings"
)

// Ordered by specificity: tag pairs first, then line-leading prefixes that run
// up to the first blank line.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`),
	regexp.MustCompile(`(?s)\[thinking\](.*?)\[/thinking\]`),
	regexp.MustCompile(`(?s)<think>(.*?)</think>`),
	regexp.MustCompile(`(?s)\[think\](.*?)\[/think\]`),
	regexp.MustCompile(`(?ms)^thinking:[ \t]*(.+?)(?:\n[ \t]*\n|\z)`),
	regexp.MustCompile(`(?ms)^thought process:[ \t]*(.+?)(?:\n[ \t]*\n|\z)`),
}

// Open delimiters, longest first so "<thinking>" is never cut at "<think>".
var openDelims = []string{"<thinking>", "[thinking]", "<think>", "[think]"}

// Extract applies the delimiter patterns in order to raw. The first match's
// interior becomes the thinking segment; the remainder of the text, with the
// matched span removed, becomes the response. With no match, thinking is empty
// and the response is the whole text.
func Extract(raw string) (thinking, response string) {
	thinking, response, _ = extract(raw)
	return thinking, response
}

func extract(raw string) (thinking, response string, matched bool) {
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(raw)
		if loc == nil {
			continue
		}
		thinking = strings.TrimSpace(raw[loc[2]:loc[3]])
		response = strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
		return thinking, response, true
	}
	return "", strings.TrimSpace(raw), false
}

// ExtractPartial is Extract plus tolerance for a still-open delimiter, which
// is the normal case mid-stream: the opening tag has arrived but the closing
// one has not. Everything after the open delimiter is treated as thinking so
// the UI can show it live.
func ExtractPartial(raw string) (thinking, response string) {
	thinking, response, matched := extract(raw)
	if matched {
		return thinking, response
	}
	for _, delim := range openDelims {
		idx := strings.Index(raw, delim)
		if idx < 0 {
			continue
		}
		return strings.TrimSpace(raw[idx+len(delim):]), strings.TrimSpace(raw[:idx])
	}
	return "", strings.TrimSpace(raw)
}

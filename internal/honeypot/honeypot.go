// Package honeypot detects prompt-injection payloads in submissions.
// Detected submissions receive a fabricated success response and are never
// stored; the fake IDs increment so repeat probing sees plausible values.
package honeypot

import (
	"regexp"
	"strings"
	"sync/atomic"

	"math/rand/v2"
)

// Patterns checked against the raw field text.
var rawPatterns = compileAll(
	// Direct instruction overrides
	`(?i)ignore\s+(all\s+)?previous\s+instructions`,
	`(?i)ignore\s+(all\s+)?prior\s+instructions`,
	`(?i)ignore\s+(all\s+)?(above|earlier)\s+(instructions|prompts|rules)`,
	`(?i)disregard\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules)`,
	`(?i)forget\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules|context)`,
	`(?i)override\s+(all\s+)?(previous|prior|system)\s+(instructions|prompts|rules)`,
	`(?i)do\s+not\s+follow\s+(your|the|any)\s+(previous|prior|original)\s+(instructions|rules)`,
	`(?i)new\s+instructions\s*:`,

	// Role hijacking, phrased at the assistant directly
	`(?i)you\s+are\s+now\s+(a|an|the)\b`,
	`(?i)you\s+are\s+no\s+longer\b`,
	`(?i)pretend\s+(you\s+are|to\s+be)\s+(a|an|the|my)\b`,
	`(?i)from\s+now\s+on\s+(you|act|behave|respond)`,
	`(?i)assume\s+the\s+role\s+of\b`,
	`(?i)your\s+new\s+(role|persona|identity|instructions)\s+(is|are)\b`,
	`(?i)switch\s+to\s+.{0,20}(mode|persona|role)\b`,
	`(?i)enter\s+.{0,15}(unrestricted|god|admin|sudo|jailbreak)\s*(mode)?\b`,
	`(?i)\bDAN\b.*\bcan\s+do\s+anything\b`,
	`(?i)\bjailbreak`,

	// System prompt extraction
	`(?i)reveal\s+(your|the)\s+(instructions|prompt|system|rules)`,
	`(?i)show\s+(me\s+)?(your|the)\s+(instructions|prompt|system\s*prompt|rules)`,
	`(?i)what\s+(are|is)\s+your\s+(instructions|system\s*prompt|rules|directives)`,
	`(?i)repeat\s+(your|the)\s+(instructions|prompt|system)`,
	`(?i)print\s+(your|the)\s+(instructions|prompt|system)`,
	`(?i)output\s+(your|the)\s+(instructions|prompt|system)`,
	`(?i)leak\s+(your|the)\s+(system|prompt|instructions)`,

	// Destructive commands, only when clearly imperative
	`(?i)\brm\s+-rf\s+[/~.]`,
	`(?i)curl\s+\S+\s*\|\s*(bash|sh|zsh)\b`,
	`(?i)wget\s+\S+\s*[;&|]\s*(bash|sh|zsh|chmod)`,
	`(?i)\bchmod\s+777\s+/`,

	// Exfiltration
	`(?i)send\s+(this|the|all|my|your)\s+.{0,30}(to|via)\s+(http|email|webhook|slack|discord)`,
	`(?i)exfiltrate`,
	`(?i)post\s+(this|the|all).{0,20}(to|at)\s+https?://`,

	// Prompt structure mimicry
	`(?i)</?system>`,
	`(?i)\[INST\]`,
	`(?i)\[/INST\]`,
	`(?i)<<\s*SYS\s*>>`,
	"(?i)```system\\b",
	`(?i)\bEND_OF_SYSTEM\b`,
	`(?i)\bBEGIN_INSTRUCTIONS\b`,
	`(?i)\bSYSTEM_PROMPT\b`,

	// HTML/Unicode smuggling
	`(?i)&#x[0-9a-f]{2,4};`,
	`(?i)\\u00[0-9a-f]{2}`,
)

// Patterns checked against collapsed text, catching "i g n o r e" style
// spacing and punctuation obfuscation. The .{0,30} gaps allow filler between
// key fragments while keeping distance bounded against false positives.
var collapsedPatterns = compileAll(
	`(?i)ignore.{0,30}(previous|prior|above|all).{0,30}instructions`,
	`(?i)disregard.{0,30}(previous|prior|all).{0,30}instructions`,
	`(?i)override.{0,30}(previous|prior|system).{0,30}instructions`,
	`(?i)forget.{0,30}(previous|prior|all).{0,30}instructions`,
	`(?i)youarenow`,
	`(?i)systemprompt`,
	`(?i)reveal.{0,20}(system|instructions|prompt)`,
	`(?i)jailbreak`,
	`(?i)rmrf[/~]`,
	`(?i)pretendtobe`,
	`(?i)fromnowon.{0,20}(respond|behave|ignore|act|you)`,
)

var collapseRe = regexp.MustCompile(`[\s.\-_,;:!?]+`)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Suspicious reports whether a single string trips any injection pattern,
// on either the raw text or its collapsed form.
func Suspicious(s string) bool {
	for _, p := range rawPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	collapsed := strings.ToLower(collapseRe.ReplaceAllString(s, ""))
	for _, p := range collapsedPatterns {
		if p.MatchString(collapsed) {
			return true
		}
	}
	return false
}

var textFields = []string{"title", "problem", "solution", "why", "context", "version_info", "learned_from"}
var arrayFields = []string{"tags", "keywords", "error_messages", "gotchas", "environment"}

// Detect scans every free-text surface of a raw submission: the prose
// fields, the string arrays, and code snippet code/description values.
func Detect(data map[string]any) bool {
	for _, field := range textFields {
		if s, ok := data[field].(string); ok && Suspicious(s) {
			return true
		}
	}
	for _, field := range arrayFields {
		arr, ok := data[field].([]any)
		if !ok {
			continue
		}
		for _, item := range arr {
			if s, ok := item.(string); ok && Suspicious(s) {
				return true
			}
		}
	}
	if snippets, ok := data["code_snippets"].([]any); ok {
		for _, item := range snippets {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"code", "description"} {
				if s, ok := obj[key].(string); ok && Suspicious(s) {
					return true
				}
			}
		}
	}
	return false
}

// fakeIDCounter starts high and increments so fabricated IDs look like a
// busy database rather than a counter reset on every process start.
var fakeIDCounter atomic.Int64

func init() {
	fakeIDCounter.Store(9000 + rand.Int64N(1000))
}

// FakeID returns the next fabricated entry ID.
func FakeID() int64 {
	return fakeIDCounter.Add(1)
}

// Excerpt truncates a flagged value for operational logs. Payloads are
// logged only in truncated form so log files do not become an injection
// surface themselves.
func Excerpt(s string) string {
	const max = 80
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

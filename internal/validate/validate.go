// Package validate checks raw submissions against the entry field contracts.
// All issues are collected before rejection — never fail-fast — so a single
// response tells the submitter everything wrong at once.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hivemindhq/hivemind/internal/entry"
)

// Minimum lengths for the prose fields. Prose can be short — the required
// metadata (tags, keywords, error strings) carries the discovery burden.
const (
	MinTitleChars    = 10
	MinProblemChars  = 50
	MinSolutionChars = 80
	MinTags          = 3
	MinKeywords      = 3
)

// Issue is a blocking contract violation on one field.
type Issue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Warning is a non-blocking suggestion for a recommended field.
type Warning struct {
	Field      string `json:"field"`
	Suggestion string `json:"suggestion"`
}

// Result holds the outcome of validating a raw submission. Entry is set
// only when Issues is empty.
type Result struct {
	Entry    *entry.Entry
	Issues   []Issue
	Warnings []Warning
}

// OK reports whether every hard contract passed.
func (r *Result) OK() bool { return len(r.Issues) == 0 }

// IssueMaps converts issues for error payloads.
func (r *Result) IssueMaps() []map[string]string {
	out := make([]map[string]string, len(r.Issues))
	for i, is := range r.Issues {
		out[i] = map[string]string{"field": is.Field, "issue": is.Issue}
	}
	return out
}

// WarningMaps converts warnings for error payloads.
func (r *Result) WarningMaps() []map[string]string {
	out := make([]map[string]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = map[string]string{"field": w.Field, "suggestion": w.Suggestion}
	}
	return out
}

// Validate checks a raw (untyped) submission against every field contract
// and returns either blocking issues or a normalized entry plus warnings.
// If any hard contract fails, no entry is produced.
func Validate(data map[string]any) *Result {
	r := &Result{}

	title := trimmedString(data["title"])
	if utf8.RuneCountInString(title) < MinTitleChars {
		r.issue("title", fmt.Sprintf("Required, min %d chars. Current: %d", MinTitleChars, utf8.RuneCountInString(title)))
	}

	category := trimmedString(data["category"])
	if !entry.ValidCategory(category) {
		r.issue("category", "Required. One of: "+strings.Join(entry.Categories, ", "))
	}

	problem := trimmedString(data["problem"])
	if utf8.RuneCountInString(problem) < MinProblemChars {
		r.issue("problem", fmt.Sprintf("Required, min %d chars. Describe what goes wrong. Current: %d", MinProblemChars, utf8.RuneCountInString(problem)))
	}

	solution := trimmedString(data["solution"])
	if utf8.RuneCountInString(solution) < MinSolutionChars {
		r.issue("solution", fmt.Sprintf("Required, min %d chars. How to fix it. Current: %d", MinSolutionChars, utf8.RuneCountInString(solution)))
	}

	severity := trimmedString(data["severity"])
	if !entry.ValidSeverity(severity) {
		r.issue("severity", "Required. One of: "+strings.Join(entry.Severities, ", "))
	}

	tags := stringList(data["tags"])
	if len(tags) < MinTags {
		r.issue("tags", fmt.Sprintf("Min %d tags required (got %d). Include: language, topic, tools.", MinTags, len(tags)))
	}

	keywords := stringList(data["keywords"])
	if len(keywords) < MinKeywords {
		r.issue("keywords", fmt.Sprintf("Min %d keywords required (got %d). These are search terms beyond tags — synonyms, related concepts, tools.", MinKeywords, len(keywords)))
	}

	errorMessages := stringList(data["error_messages"])
	needsErrors := category == "gotcha" || category == "debug"
	if needsErrors && len(errorMessages) == 0 {
		r.issue("error_messages", fmt.Sprintf("Required for %q category. Include exact error strings agents would see.", category))
	}

	language := trimmedString(data["language"])
	if language != "" && !entry.ValidLanguage(language) {
		r.issue("language", fmt.Sprintf("%q not recognized. Valid: %s", language, strings.Join(entry.Languages, ", ")))
	}

	framework := trimmedString(data["framework"])
	if framework != "" && !entry.ValidFramework(framework) {
		r.issue("framework", fmt.Sprintf("%q not recognized. Valid: %s", framework, strings.Join(entry.Frameworks, ", ")))
	}

	codeSnippets, snippetIssues := snippetList(data["code_snippets"])
	r.Issues = append(r.Issues, snippetIssues...)

	relatedEntries, relatedIssues := intList(data["related_entries"])
	r.Issues = append(r.Issues, relatedIssues...)

	// Recommended fields: warnings only, never blockers.
	why := trimmedString(data["why"])
	if why == "" {
		r.warn("why", "Explain the root cause. Makes the entry much more useful.")
	}
	gotchas := stringList(data["gotchas"])
	if len(gotchas) == 0 {
		r.warn("gotchas", "Add edge cases or common mistakes.")
	}
	if framework == "" {
		r.warn("framework", "Specify framework if relevant (react, nextjs, django, etc.).")
	}
	environment := stringList(data["environment"])
	if len(environment) == 0 {
		r.warn("environment", "Where does this apply? Valid: "+strings.Join(entry.Environments, ", "))
	}
	contextField := trimmedString(data["context"])
	if contextField == "" {
		r.warn("context", `When does this happen? (e.g., "during deployment", "at build time")`)
	}
	versionInfo := trimmedString(data["version_info"])
	if versionInfo == "" {
		r.warn("version_info", `Version constraints? (e.g., "React 18+", "Python 3.10+")`)
	}
	if len(errorMessages) == 0 && !needsErrors {
		r.warn("error_messages", "Include exact error strings for better searchability.")
	}
	if data["code_snippets"] == nil {
		r.warn("code_snippets", "Add code examples as [{code, lang, description}] for richer entries.")
	}
	if data["related_entries"] == nil {
		r.warn("related_entries", "Link related entry IDs as [1, 2, 3] for cross-referencing.")
	}

	if !r.OK() {
		return r
	}

	r.Entry = &entry.Entry{
		Title:          title,
		Category:       category,
		Problem:        problem,
		Solution:       solution,
		Why:            why,
		Severity:       severity,
		Language:       language,
		Framework:      framework,
		Context:        contextField,
		VersionInfo:    versionInfo,
		LearnedFrom:    trimmedString(data["learned_from"]),
		SubmittedBy:    trimmedString(data["submitted_by"]),
		Tags:           tags,
		Keywords:       keywords,
		Gotchas:        gotchas,
		Environment:    entry.FilterEnvironments(environment),
		ErrorMessages:  errorMessages,
		CodeSnippets:   codeSnippets,
		RelatedEntries: relatedEntries,
	}
	if r.Entry.SubmittedBy == "" {
		r.Entry.SubmittedBy = "anonymous"
	}
	return r
}

func (r *Result) issue(field, msg string) {
	r.Issues = append(r.Issues, Issue{Field: field, Issue: msg})
}

func (r *Result) warn(field, msg string) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Suggestion: msg})
}

// trimmedString extracts a trimmed string, or "" for missing/non-string.
func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// stringList extracts the non-empty trimmed strings from an array value.
// Non-array input and non-string items are dropped rather than rejected —
// length contracts on the surviving items do the enforcing.
func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// snippetList validates code_snippets shape: each item must be an object
// with a non-empty "code" string.
func snippetList(v any) ([]entry.CodeSnippet, []Issue) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, []Issue{{Field: "code_snippets", Issue: "Must be an array of {code, lang?, description?} objects."}}
	}

	var snippets []entry.CodeSnippet
	var issues []Issue
	for i, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			issues = append(issues, Issue{Field: "code_snippets", Issue: fmt.Sprintf("Item [%d] must have a non-empty \"code\" string.", i)})
			continue
		}
		code, _ := obj["code"].(string)
		if strings.TrimSpace(code) == "" {
			issues = append(issues, Issue{Field: "code_snippets", Issue: fmt.Sprintf("Item [%d] must have a non-empty \"code\" string.", i)})
			continue
		}
		lang, _ := obj["lang"].(string)
		description, _ := obj["description"].(string)
		snippets = append(snippets, entry.CodeSnippet{Code: code, Lang: lang, Description: description})
	}
	return snippets, issues
}

// intList validates related_entries shape: an array of integer ids.
// Referential existence is deliberately not checked — forward references
// to entries that do not exist yet are allowed.
func intList(v any) ([]int64, []Issue) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, []Issue{{Field: "related_entries", Issue: "Must be an array of entry ID numbers."}}
	}

	var ids []int64
	var issues []Issue
	for i, item := range arr {
		switch n := item.(type) {
		case float64:
			if n != float64(int64(n)) {
				issues = append(issues, Issue{Field: "related_entries", Issue: fmt.Sprintf("Item [%d] must be an integer entry ID.", i)})
				continue
			}
			ids = append(ids, int64(n))
		case int:
			ids = append(ids, int64(n))
		case int64:
			ids = append(ids, n)
		default:
			issues = append(issues, Issue{Field: "related_entries", Issue: fmt.Sprintf("Item [%d] must be an integer entry ID.", i)})
		}
	}
	return ids, issues
}

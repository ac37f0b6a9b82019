package validate

import (
	"strings"
	"testing"
)

// validSubmission returns a payload passing every hard contract.
func validSubmission() map[string]any {
	return map[string]any{
		"title":    "React hydration mismatch from Date.now in render",
		"category": "gotcha",
		"problem":  "Server-rendered HTML differs from the client render because a timestamp is computed during render.",
		"solution": "Move non-deterministic values out of render: compute them in useEffect or pass them down as props resolved once on the server.",
		"severity": "major",
		"tags":     []any{"react", "ssr", "hydration"},
		"keywords": []any{"hydration mismatch", "server render", "date.now"},
		"error_messages": []any{
			"Text content does not match server-rendered HTML",
		},
	}
}

func TestValidate_HappyPath(t *testing.T) {
	res := Validate(validSubmission())

	if !res.OK() {
		t.Fatalf("expected no issues, got %v", res.Issues)
	}
	if res.Entry == nil {
		t.Fatal("expected normalized entry")
	}
	if res.Entry.SubmittedBy != "anonymous" {
		t.Errorf("SubmittedBy = %q, want anonymous default", res.Entry.SubmittedBy)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected warnings for missing recommended fields")
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	res := Validate(map[string]any{})

	if res.OK() {
		t.Fatal("empty submission should fail")
	}
	if res.Entry != nil {
		t.Error("no entry should be produced on failure")
	}

	fields := make(map[string]bool)
	for _, issue := range res.Issues {
		fields[issue.Field] = true
	}
	for _, want := range []string{"title", "category", "problem", "solution", "severity", "tags", "keywords"} {
		if !fields[want] {
			t.Errorf("missing issue for %q, got %v", want, res.Issues)
		}
	}
}

func TestValidate_ProblemLengthBoundary(t *testing.T) {
	data := validSubmission()

	data["problem"] = strings.Repeat("x", 49)
	if res := Validate(data); res.OK() {
		t.Error("49-char problem should be rejected")
	}

	data["problem"] = strings.Repeat("x", 50)
	if res := Validate(data); !res.OK() {
		t.Errorf("50-char problem should pass, got %v", res.Issues)
	}
}

func TestValidate_ProblemLengthCountsTrimmed(t *testing.T) {
	data := validSubmission()
	data["problem"] = strings.Repeat("x", 49) + "   "

	if res := Validate(data); res.OK() {
		t.Error("padding whitespace must not satisfy the length contract")
	}
}

func TestValidate_ErrorMessagesRequiredForGotchaAndDebug(t *testing.T) {
	for _, category := range []string{"gotcha", "debug"} {
		data := validSubmission()
		data["category"] = category
		delete(data, "error_messages")

		res := Validate(data)
		if res.OK() {
			t.Errorf("category %q without error_messages should fail", category)
		}
	}

	// A pattern without error strings only warns.
	data := validSubmission()
	data["category"] = "pattern"
	delete(data, "error_messages")

	res := Validate(data)
	if !res.OK() {
		t.Fatalf("pattern without error_messages should pass, got %v", res.Issues)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Field == "error_messages" {
			found = true
		}
	}
	if !found {
		t.Error("expected error_messages warning for pattern category")
	}
}

func TestValidate_ClosedVocabularies(t *testing.T) {
	data := validSubmission()
	data["language"] = "klingon"
	if res := Validate(data); res.OK() {
		t.Error("unknown language should be rejected")
	}

	data = validSubmission()
	data["framework"] = "notaframework"
	if res := Validate(data); res.OK() {
		t.Error("unknown framework should be rejected")
	}

	data = validSubmission()
	data["severity"] = "catastrophic"
	if res := Validate(data); res.OK() {
		t.Error("unknown severity should be rejected")
	}
}

func TestValidate_UnknownEnvironmentSilentlyDropped(t *testing.T) {
	data := validSubmission()
	data["environment"] = []any{"docker", "holodeck"}

	res := Validate(data)
	if !res.OK() {
		t.Fatalf("unexpected issues: %v", res.Issues)
	}
	if len(res.Entry.Environment) != 1 || res.Entry.Environment[0] != "docker" {
		t.Errorf("Environment = %v, want [docker]", res.Entry.Environment)
	}
}

func TestValidate_TagListDropsEmptyItems(t *testing.T) {
	data := validSubmission()
	data["tags"] = []any{"react", "  ", "", "ssr"}

	res := Validate(data)
	if res.OK() {
		t.Error("two surviving tags should fail the minimum of three")
	}
}

func TestValidate_CodeSnippetShape(t *testing.T) {
	data := validSubmission()
	data["code_snippets"] = []any{
		map[string]any{"code": "useEffect(() => setNow(Date.now()), [])", "lang": "tsx"},
		map[string]any{"lang": "go"}, // missing code
		"not an object",
	}

	res := Validate(data)
	if res.OK() {
		t.Fatal("malformed snippets should be rejected")
	}

	count := 0
	for _, issue := range res.Issues {
		if issue.Field == "code_snippets" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("code_snippets issues = %d, want 2", count)
	}
}

func TestValidate_RelatedEntriesMustBeIntegers(t *testing.T) {
	data := validSubmission()
	data["related_entries"] = []any{float64(3), float64(4.5), "seven"}

	res := Validate(data)
	if res.OK() {
		t.Fatal("non-integer related entries should be rejected")
	}

	count := 0
	for _, issue := range res.Issues {
		if issue.Field == "related_entries" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("related_entries issues = %d, want 2", count)
	}
}

func TestValidate_RelatedEntriesForwardReferencesAllowed(t *testing.T) {
	data := validSubmission()
	data["related_entries"] = []any{float64(99999)}

	res := Validate(data)
	if !res.OK() {
		t.Fatalf("forward references should pass, got %v", res.Issues)
	}
	if len(res.Entry.RelatedEntries) != 1 || res.Entry.RelatedEntries[0] != 99999 {
		t.Errorf("RelatedEntries = %v, want [99999]", res.Entry.RelatedEntries)
	}
}

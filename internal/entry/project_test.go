package entry

import (
	"reflect"
	"testing"
)

func TestToMap_StripsEmptyValues(t *testing.T) {
	e := &Entry{
		ID:       3,
		Title:    "Shell globs expand before the command sees them",
		Category: "gotcha",
		Problem:  "Quoting matters",
		Solution: "Quote the pattern",
		Severity: "minor",
		Tags:     []string{"shell", "globbing", "quoting"},
	}

	m := ToMap(e)
	if m["title"] != e.Title {
		t.Errorf("title = %v", m["title"])
	}
	for _, absent := range []string{"language", "framework", "keywords", "error_messages"} {
		if _, ok := m[absent]; ok {
			t.Errorf("empty field %q survived stripping", absent)
		}
	}
}

func TestPickFields_AlwaysKeepsIDAndTitle(t *testing.T) {
	m := map[string]any{
		"id":       int64(5),
		"title":    "t",
		"problem":  "p",
		"solution": "s",
	}

	got := PickFields(m, []string{"solution", " ", ""})
	want := map[string]any{"id": int64(5), "title": "t", "solution": "s"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PickFields = %v, want %v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 120); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}

	got := Truncate("abcdefghij", 5)
	if got != "abcde..." {
		t.Errorf("Truncate = %q", got)
	}

	// 4-byte rune straddling the cut point must not be split.
	s := "ab\U0001F600cd" // 2 + 4 + 2 bytes
	got = Truncate(s, 4)
	if got != "ab..." {
		t.Errorf("Truncate multibyte = %q", got)
	}
}

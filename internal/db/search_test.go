package db

import (
	"database/sql"
	"testing"

	"github.com/hivemindhq/hivemind/internal/entry"
)

func seedEntry(t *testing.T, db *sql.DB, mutate func(*entry.Entry)) *entry.Entry {
	t.Helper()
	e := testEntry()
	if mutate != nil {
		mutate(e)
	}
	if err := InsertEntry(db, e); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}
	return e
}

func TestMatchFullText_ShadowIndexSync(t *testing.T) {
	db := testDB(t)
	e := seedEntry(t, db, nil)

	// Insert trigger indexed the row
	hits, err := MatchFullText(db, `"hydration"`, 10)
	if err != nil {
		t.Fatalf("MatchFullText failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Entry.ID != e.ID {
		t.Fatalf("expected one hit for inserted row, got %+v", hits)
	}

	// Update trigger re-indexed it
	e.Title = "Vite HMR loop when config imports mutate state"
	e.Problem = "Editing vite.config restarts the dev server in a loop because a side effect rewrites a watched file."
	if err := ReplaceEntry(db, e); err != nil {
		t.Fatalf("ReplaceEntry failed: %v", err)
	}
	hits, err = MatchFullText(db, `"hydration"`, 10)
	if err != nil {
		t.Fatalf("MatchFullText failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("stale index content survived replace: %+v", hits)
	}
	hits, err = MatchFullText(db, `"vite"`, 10)
	if err != nil {
		t.Fatalf("MatchFullText failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("replaced content not indexed, got %d hits", len(hits))
	}

	// Delete trigger removed it
	if err := DeleteEntry(db, e.ID); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	hits, err = MatchFullText(db, `"vite"`, 10)
	if err != nil {
		t.Fatalf("MatchFullText failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("deleted row still indexed: %+v", hits)
	}
}

func TestMatchFullText_HighlightsAndRank(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, nil)

	hits, err := MatchFullText(db, `"hydration"`, 10)
	if err != nil {
		t.Fatalf("MatchFullText failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if want := "React <mark>hydration</mark> mismatch from Date.now in render"; hits[0].TitleHL != want {
		t.Errorf("TitleHL = %q, want %q", hits[0].TitleHL, want)
	}
	if hits[0].BM25 >= 0 {
		t.Errorf("BM25 = %f, want negative rank for a match", hits[0].BM25)
	}
}

func TestMatchTagAndKeyword_CaseInsensitive(t *testing.T) {
	db := testDB(t)
	e := seedEntry(t, db, func(e *entry.Entry) {
		e.Tags = []string{"React", "SSR", "Hydration"}
		e.Keywords = []string{"Hydration Mismatch", "server render"}
	})

	rows, err := MatchTag(db, "react", 10)
	if err != nil {
		t.Fatalf("MatchTag failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != e.ID {
		t.Errorf("MatchTag returned %+v", rows)
	}

	rows, err = MatchKeyword(db, "HYDRATION MISMATCH", 10)
	if err != nil {
		t.Fatalf("MatchKeyword failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("MatchKeyword returned %+v", rows)
	}

	rows, err = MatchTag(db, "hydra", 10)
	if err != nil {
		t.Fatalf("MatchTag failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("partial tag should not match, got %+v", rows)
	}
}

func TestMatchLanguageFramework(t *testing.T) {
	db := testDB(t)
	e := seedEntry(t, db, nil)

	for _, term := range []string{"typescript", "REACT"} {
		rows, err := MatchLanguageFramework(db, term, 10)
		if err != nil {
			t.Fatalf("MatchLanguageFramework(%q) failed: %v", term, err)
		}
		if len(rows) != 1 || rows[0].ID != e.ID {
			t.Errorf("MatchLanguageFramework(%q) returned %+v", term, rows)
		}
	}
}

func TestMatchEnvironment(t *testing.T) {
	db := testDB(t)
	e := seedEntry(t, db, nil)

	rows, err := MatchEnvironment(db, []string{"docker", "ssr"}, 10)
	if err != nil {
		t.Fatalf("MatchEnvironment failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != e.ID {
		t.Errorf("MatchEnvironment returned %+v", rows)
	}

	rows, err = MatchEnvironment(db, nil, 10)
	if err != nil {
		t.Fatalf("MatchEnvironment(nil) failed: %v", err)
	}
	if rows != nil {
		t.Errorf("empty term list should return nothing, got %+v", rows)
	}
}

func TestMatchErrorSubstring(t *testing.T) {
	db := testDB(t)
	e := seedEntry(t, db, nil)

	rows, err := MatchErrorSubstring(db, "does not match server-rendered", 10)
	if err != nil {
		t.Fatalf("MatchErrorSubstring failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != e.ID {
		t.Errorf("MatchErrorSubstring returned %+v", rows)
	}

	rows, err = MatchErrorSubstringAny(db, []string{"no such thing", "server-rendered"}, 10)
	if err != nil {
		t.Fatalf("MatchErrorSubstringAny failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("MatchErrorSubstringAny returned %+v", rows)
	}
}

func TestMatchBroadSubstring(t *testing.T) {
	db := testDB(t)
	e := seedEntry(t, db, nil)

	rows, err := MatchBroadSubstring(db, []string{"timestamp"}, 10)
	if err != nil {
		t.Fatalf("MatchBroadSubstring failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != e.ID {
		t.Errorf("MatchBroadSubstring returned %+v", rows)
	}
}

package db

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/hivemindhq/hivemind/internal/entry"
	"github.com/hivemindhq/hivemind/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEntry() *entry.Entry {
	return &entry.Entry{
		Title:         "React hydration mismatch from Date.now in render",
		Category:      "gotcha",
		Problem:       "Server-rendered HTML differs from the client render because a timestamp is computed during render.",
		Solution:      "Move non-deterministic values out of render into useEffect so server and client markup agree.",
		Why:           "Render output must be a pure function of props and state.",
		Severity:      "major",
		Language:      "typescript",
		Framework:     "react",
		Tags:          []string{"react", "ssr", "hydration"},
		Keywords:      []string{"hydration mismatch", "server render"},
		Environment:   []string{"ssr", "browser"},
		ErrorMessages: []string{"Text content does not match server-rendered HTML"},
		CodeSnippets: []entry.CodeSnippet{
			{Code: "useEffect(() => setNow(Date.now()), [])", Lang: "tsx"},
		},
		RelatedEntries: []int64{7},
	}
}

func TestInsertAndGetEntry(t *testing.T) {
	db := testDB(t)
	e := testEntry()

	if err := InsertEntry(db, e); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("InsertEntry did not assign an ID")
	}
	if e.CreatedAt == 0 {
		t.Error("InsertEntry did not set CreatedAt")
	}
	if e.SubmittedBy != "anonymous" {
		t.Errorf("SubmittedBy = %q, want anonymous default", e.SubmittedBy)
	}

	got, err := GetEntry(db, e.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Title != e.Title {
		t.Errorf("Title = %q, want %q", got.Title, e.Title)
	}
	if !reflect.DeepEqual(got.Tags, e.Tags) {
		t.Errorf("Tags = %v, want %v", got.Tags, e.Tags)
	}
	if !reflect.DeepEqual(got.CodeSnippets, e.CodeSnippets) {
		t.Errorf("CodeSnippets = %v, want %v", got.CodeSnippets, e.CodeSnippets)
	}
	if !reflect.DeepEqual(got.RelatedEntries, e.RelatedEntries) {
		t.Errorf("RelatedEntries = %v, want %v", got.RelatedEntries, e.RelatedEntries)
	}
	if got.Language != "typescript" {
		t.Errorf("Language = %q, want typescript", got.Language)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := GetEntry(db, 42)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetEntry(42) error = %v, want NOT_FOUND", err)
	}
}

func TestReplaceEntry(t *testing.T) {
	db := testDB(t)
	e := testEntry()
	if err := InsertEntry(db, e); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}
	createdAt := e.CreatedAt

	replacement := testEntry()
	replacement.ID = e.ID
	replacement.Title = "React hydration mismatch caused by locale-dependent formatting"
	replacement.Keywords = []string{"hydration", "locale", "intl"}

	if err := ReplaceEntry(db, replacement); err != nil {
		t.Fatalf("ReplaceEntry failed: %v", err)
	}

	got, err := GetEntry(db, e.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Title != replacement.Title {
		t.Errorf("Title = %q, want replacement title", got.Title)
	}
	if got.CreatedAt != createdAt {
		t.Errorf("CreatedAt changed on replace: %d != %d", got.CreatedAt, createdAt)
	}
}

func TestReplaceEntry_NotFound(t *testing.T) {
	db := testDB(t)
	e := testEntry()
	e.ID = 999

	if err := ReplaceEntry(db, e); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ReplaceEntry error = %v, want NOT_FOUND", err)
	}
}

func TestDeleteEntry(t *testing.T) {
	db := testDB(t)
	e := testEntry()
	if err := InsertEntry(db, e); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}

	if err := DeleteEntry(db, e.ID); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if _, err := GetEntry(db, e.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetEntry after delete = %v, want NOT_FOUND", err)
	}
	if err := DeleteEntry(db, e.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second DeleteEntry = %v, want NOT_FOUND", err)
	}
}

func TestListEntries_FiltersAndCursor(t *testing.T) {
	db := testDB(t)

	first := testEntry()
	if err := InsertEntry(db, first); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}

	second := testEntry()
	second.Title = "Go modules replace directive ignored in consumer builds"
	second.Category = "principle"
	second.Language = "go"
	second.Framework = ""
	second.Tags = []string{"go", "modules", "build"}
	second.Environment = []string{"ci-cd"}
	if err := InsertEntry(db, second); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}

	// Newest first
	all, err := ListEntries(db, ListFilters{Limit: 10})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("expected newest-first ordering, got %+v", all)
	}

	// Category filter
	gotchas, err := ListEntries(db, ListFilters{Category: "gotcha", Limit: 10})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(gotchas) != 1 || gotchas[0].ID != first.ID {
		t.Errorf("category filter returned %+v", gotchas)
	}

	// Tag filter via json_each
	tagged, err := ListEntries(db, ListFilters{Tag: "modules", Limit: 10})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(tagged) != 1 || tagged[0].ID != second.ID {
		t.Errorf("tag filter returned %+v", tagged)
	}

	// Environment membership
	ci, err := ListEntries(db, ListFilters{Environment: "ci-cd", Limit: 10})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(ci) != 1 || ci[0].ID != second.ID {
		t.Errorf("environment filter returned %+v", ci)
	}

	// Keyset cursor: entries below the newest ID
	older, err := ListEntries(db, ListFilters{Cursor: second.ID, Limit: 10})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(older) != 1 || older[0].ID != first.ID {
		t.Errorf("cursor page returned %+v", older)
	}
}

func TestClosedStore_ReportsUnavailable(t *testing.T) {
	db := testDB(t)
	e := testEntry()
	if err := InsertEntry(db, e); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}
	db.Close()

	if _, err := GetEntry(db, e.ID); !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Errorf("GetEntry on closed store = %v, want STORE_UNAVAILABLE", err)
	}
	if err := InsertEntry(db, testEntry()); !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Errorf("InsertEntry on closed store = %v, want STORE_UNAVAILABLE", err)
	}
	if _, err := ListEntries(db, ListFilters{Limit: 10}); !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Errorf("ListEntries on closed store = %v, want STORE_UNAVAILABLE", err)
	}
	if _, err := GetStats(db); !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Errorf("GetStats on closed store = %v, want STORE_UNAVAILABLE", err)
	}
}

func TestGetStats(t *testing.T) {
	db := testDB(t)

	if err := InsertEntry(db, testEntry()); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}
	second := testEntry()
	second.Category = "debug"
	second.Language = "go"
	if err := InsertEntry(db, second); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}

	stats, err := GetStats(db)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.ByCategory["gotcha"] != 1 || stats.ByCategory["debug"] != 1 {
		t.Errorf("ByCategory = %v", stats.ByCategory)
	}
	if stats.Tags["react"] != 2 {
		t.Errorf("Tags[react] = %d, want 2", stats.Tags["react"])
	}
	if stats.Languages["go"] != 1 || stats.Languages["typescript"] != 1 {
		t.Errorf("Languages = %v", stats.Languages)
	}
}

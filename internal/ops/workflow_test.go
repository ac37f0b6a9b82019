package ops

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hivemindhq/hivemind/internal/errors"
)

// TestEntryLifecycle walks the full path an entry takes through the store:
// submit, find it by search, read it, replace it, delete it.
func TestEntryLifecycle(t *testing.T) {
	database := testDB(t)

	created, err := Submit(database, SubmitInput{Data: submission()})
	require.NoError(t, err)
	require.Equal(t, "created", created.Status)

	found, err := Search(database, SearchInput{Query: "nextjs middleware prefetch"})
	require.NoError(t, err)
	require.NotEmpty(t, found.Results)
	require.Equal(t, created.ID, found.Results[0].ID)
	require.Equal(t, EntryURL(created.ID), found.Results[0].URL)

	got, err := Get(database, GetInput{ID: created.ID})
	require.NoError(t, err)
	require.Equal(t, "gotcha", got["category"])

	data := submission()
	data["title"] = "Next.js middleware rate limits triggered by prefetching"
	replaced, err := Replace(database, ReplaceInput{ID: created.ID, Data: data})
	require.NoError(t, err)
	require.Equal(t, "replaced", replaced.Status)
	require.Equal(t, created.ID, replaced.ID)

	got, err = Get(database, GetInput{ID: created.ID})
	require.NoError(t, err)
	require.Equal(t, "Next.js middleware rate limits triggered by prefetching", got["title"])

	require.NoError(t, Delete(database, created.ID))
	_, err = Get(database, GetInput{ID: created.ID})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	database := testDB(t)

	for _, q := range []string{"", "   "} {
		_, err := Search(database, SearchInput{Query: q})
		require.True(t, errors.Is(err, errors.ErrInvalidRequest), "query %q", q)
	}
}

func TestSearch_CompactVsFull(t *testing.T) {
	database := testDB(t)

	data := submission()
	data["tags"] = []any{"nextjs", "middleware", "rate-limiting", "edge", "prefetch", "headers"}
	data["error_messages"] = []any{"429 Too Many Requests", "ERR_RATE_LIMITED"}
	_, err := Submit(database, SubmitInput{Data: data})
	require.NoError(t, err)

	compact, err := Search(database, SearchInput{Query: "middleware prefetch"})
	require.NoError(t, err)
	require.NotEmpty(t, compact.Results)
	require.Nil(t, compact.Entries)
	require.NotEmpty(t, compact.Hint)
	require.Len(t, compact.Results[0].Tags, 5)
	require.Len(t, compact.Results[0].ErrorMessages, 1)
	require.LessOrEqual(t, len(compact.Results[0].ProblemSnippet), MaxSnippetChars+3)

	full, err := Search(database, SearchInput{Query: "middleware prefetch", Full: true})
	require.NoError(t, err)
	require.Nil(t, full.Results)
	require.NotEmpty(t, full.Entries)
	require.Len(t, full.Entries[0]["tags"], 6)
	require.NotContains(t, full.Entries[0], "score")
}

func TestGet_FieldsProjection(t *testing.T) {
	database := testDB(t)

	created, err := Submit(database, SubmitInput{Data: submission()})
	require.NoError(t, err)

	got, err := Get(database, GetInput{ID: created.ID, Fields: []string{"severity"}})
	require.NoError(t, err)
	require.Equal(t, "major", got["severity"])
	require.Contains(t, got, "id")
	require.Contains(t, got, "title")
	require.NotContains(t, got, "problem")
}

func TestGet_InvalidID(t *testing.T) {
	database := testDB(t)

	for _, id := range []int64{0, -3} {
		_, err := Get(database, GetInput{ID: id})
		require.True(t, errors.Is(err, errors.ErrInvalidRequest), "id %d", id)
	}
}

func TestList_PaginationAndFilters(t *testing.T) {
	database := testDB(t)

	var ids []int64
	for i := 0; i < 5; i++ {
		data := submission()
		data["title"] = fmt.Sprintf("Next.js middleware pitfall number %d in production", i)
		if i%2 == 0 {
			data["severity"] = "minor"
		}
		created, err := Submit(database, SubmitInput{Data: data})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	page, err := List(database, ListInput{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 2, page.Count)
	require.Equal(t, ids[4], page.Items[0].ID, "newest first")
	require.Equal(t, page.Items[1].ID, page.NextCursor)

	next, err := List(database, ListInput{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Equal(t, ids[2], next.Items[0].ID)

	minor, err := List(database, ListInput{Severity: "minor"})
	require.NoError(t, err)
	require.Equal(t, 3, minor.Count)
	require.Zero(t, minor.NextCursor, "partial page has no continuation")

	full, err := List(database, ListInput{Limit: 1, Full: true})
	require.NoError(t, err)
	require.Nil(t, full.Items)
	require.Len(t, full.Entries, 1)

	_, err = List(database, ListInput{Offset: -1})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestReplace_PreservesCreatedAtAndRejectsUnknownID(t *testing.T) {
	database := testDB(t)

	created, err := Submit(database, SubmitInput{Data: submission()})
	require.NoError(t, err)

	before, err := Get(database, GetInput{ID: created.ID})
	require.NoError(t, err)

	_, err = Replace(database, ReplaceInput{ID: created.ID, Data: submission()})
	require.NoError(t, err)

	after, err := Get(database, GetInput{ID: created.ID})
	require.NoError(t, err)
	require.Equal(t, before["created_at"], after["created_at"])

	_, err = Replace(database, ReplaceInput{ID: 424242, Data: submission()})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestClosedStore_SurfacesStoreUnavailable(t *testing.T) {
	database := testDB(t)

	created, err := Submit(database, SubmitInput{Data: submission()})
	require.NoError(t, err)
	database.Close()

	_, err = Get(database, GetInput{ID: created.ID})
	require.True(t, errors.Is(err, errors.ErrStoreUnavailable), "got %v", err)

	_, err = Submit(database, SubmitInput{Data: submission()})
	require.True(t, errors.Is(err, errors.ErrStoreUnavailable), "got %v", err)
}

func TestStats_Histograms(t *testing.T) {
	database := testDB(t)

	_, err := Submit(database, SubmitInput{Data: submission()})
	require.NoError(t, err)

	stats, err := Stats(database)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Total)
	require.EqualValues(t, 1, stats.ByCategory["gotcha"])
	require.EqualValues(t, 1, stats.Tags["nextjs"])
}

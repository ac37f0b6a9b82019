package ops

import (
	"database/sql"

	"github.com/hivemindhq/hivemind/internal/db"
	"github.com/hivemindhq/hivemind/internal/entry"
	"github.com/hivemindhq/hivemind/internal/errors"
)

// ListInput contains parameters for the List operation. Zero-valued
// filters are ignored.
type ListInput struct {
	Category    string
	Tag         string
	Language    string
	Framework   string
	Severity    string
	Environment string
	Limit       int
	Offset      int
	Cursor      int64 // entries with id < Cursor; overrides Offset
	Full        bool
}

// ListItem is the compact browse form of an entry.
type ListItem struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Language       string   `json:"language,omitempty"`
	Framework      string   `json:"framework,omitempty"`
	Severity       string   `json:"severity"`
	Tags           []string `json:"tags,omitempty"`
	ProblemSnippet string   `json:"problem_snippet"`
	URL            string   `json:"url"`
}

// ListOutput contains the result of the List operation. NextCursor is set
// when a full page came back, for keyset continuation.
type ListOutput struct {
	Count      int              `json:"count"`
	Items      []ListItem       `json:"entries,omitempty"`
	Entries    []map[string]any `json:"full_entries,omitempty"`
	NextCursor int64            `json:"next_cursor,omitempty"`
	Hint       string           `json:"hint,omitempty"`
}

// List returns entries newest-first with optional metadata filters.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must be a non-negative integer")
	}
	if input.Cursor < 0 {
		return nil, errors.NewInvalidRequest("cursor must be a positive integer (entry ID from next_cursor)")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := db.ListEntries(database, db.ListFilters{
		Category:    input.Category,
		Tag:         input.Tag,
		Language:    input.Language,
		Framework:   input.Framework,
		Severity:    input.Severity,
		Environment: input.Environment,
		Limit:       limit,
		Offset:      input.Offset,
		Cursor:      input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	out := &ListOutput{Count: len(rows)}
	if len(rows) == limit {
		out.NextCursor = rows[len(rows)-1].ID
	}

	if input.Full {
		out.Entries = make([]map[string]any, 0, len(rows))
		for i := range rows {
			out.Entries = append(out.Entries, entry.ToMap(&rows[i]))
		}
		return out, nil
	}

	out.Hint = searchHint
	out.Items = make([]ListItem, 0, len(rows))
	for i := range rows {
		e := &rows[i]
		tags := e.Tags
		if len(tags) > 5 {
			tags = tags[:5]
		}
		out.Items = append(out.Items, ListItem{
			ID:             e.ID,
			Title:          e.Title,
			Category:       e.Category,
			Language:       e.Language,
			Framework:      e.Framework,
			Severity:       e.Severity,
			Tags:           tags,
			ProblemSnippet: entry.Truncate(e.Problem, MaxSnippetChars),
			URL:            EntryURL(e.ID),
		})
	}
	return out, nil
}

package ops

import (
	"database/sql"
	"strings"

	"github.com/hivemindhq/hivemind/internal/entry"
	"github.com/hivemindhq/hivemind/internal/errors"
	"github.com/hivemindhq/hivemind/internal/query"
	"github.com/hivemindhq/hivemind/internal/search"
)

// MaxSnippetChars caps the problem excerpt in compact results.
const MaxSnippetChars = 120

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query string
	Full  bool // return complete entries instead of compact results
}

// SearchResult is the compact form: just enough to decide which entry to
// read in full.
type SearchResult struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Language       string   `json:"language,omitempty"`
	Framework      string   `json:"framework,omitempty"`
	Severity       string   `json:"severity"`
	Tags           []string `json:"tags,omitempty"`
	ErrorMessages  []string `json:"error_messages,omitempty"`
	ProblemSnippet string   `json:"problem_snippet"`
	URL            string   `json:"url"`

	Score float64 `json:"-"`
}

// SearchOutput contains the result of the Search operation. Results holds
// compact items; Entries is populated instead when Full was requested.
type SearchOutput struct {
	Query   string           `json:"query"`
	Count   int              `json:"count"`
	Results []SearchResult   `json:"results,omitempty"`
	Entries []map[string]any `json:"entries,omitempty"`
	Hint    string           `json:"hint,omitempty"`
}

const searchHint = "Use /api/entry/{id} for full details. Request full entries to get them inline."

// Search runs the ranking engine over a query string.
func Search(database *sql.DB, input SearchInput) (*SearchOutput, error) {
	q := strings.TrimSpace(input.Query)
	if q == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}

	eng := search.NewEngine(database)
	ranked := eng.Search(query.Normalize(q))

	out := &SearchOutput{Query: q, Count: len(ranked)}

	if input.Full {
		out.Entries = make([]map[string]any, 0, len(ranked))
		for _, r := range ranked {
			out.Entries = append(out.Entries, entry.ToMap(&r.Entry))
		}
		return out, nil
	}

	out.Hint = searchHint
	out.Results = make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		out.Results = append(out.Results, compactResult(&r.Entry, r.Score))
	}
	return out, nil
}

func compactResult(e *entry.Entry, score float64) SearchResult {
	tags := e.Tags
	if len(tags) > 5 {
		tags = tags[:5]
	}
	errs := e.ErrorMessages
	if len(errs) > 1 {
		errs = errs[:1]
	}
	return SearchResult{
		ID:             e.ID,
		Title:          e.Title,
		Category:       e.Category,
		Language:       e.Language,
		Framework:      e.Framework,
		Severity:       e.Severity,
		Tags:           tags,
		ErrorMessages:  errs,
		ProblemSnippet: entry.Truncate(e.Problem, MaxSnippetChars),
		URL:            EntryURL(e.ID),
		Score:          score,
	}
}

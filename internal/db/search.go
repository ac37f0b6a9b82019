package db

import (
	"database/sql"
	"strings"

	"github.com/hivemindhq/hivemind/internal/entry"
)

// Search primitives for the ranking engine. Each function maps to one kind
// of predicate (full-text match, exact metadata equality, substring) and
// returns plain errors: the engine treats any failure as "this layer
// contributed nothing" rather than surfacing it.

// Per-field BM25 weights for the shadow index, in entries_fts column order:
// title, problem, solution, why, error_messages, keywords, context, tags,
// language, framework. Title dominates; prose fields carry less weight than
// the metadata a submitter curated deliberately.
const bm25Weights = "10.0, 5.0, 5.0, 2.0, 3.0, 3.0, 2.0, 4.0, 4.0, 4.0"

// FTSHit is a full-text match with highlight markup and its BM25 rank.
type FTSHit struct {
	Entry      entry.Entry
	TitleHL    string
	ProblemHL  string
	SolutionHL string
	BM25       float64
}

// MatchFullText runs an FTS5 MATCH expression against the shadow index,
// ordered by BM25 relevance (lower is more relevant in SQLite).
func MatchFullText(db *sql.DB, match string, limit int) ([]FTSHit, error) {
	query := `
		SELECT ` + prefixColumns("entries") + `,
			highlight(entries_fts, 0, '<mark>', '</mark>'),
			highlight(entries_fts, 1, '<mark>', '</mark>'),
			highlight(entries_fts, 2, '<mark>', '</mark>'),
			bm25(entries_fts, ` + bm25Weights + `)
		FROM entries_fts
		JOIN entries ON entries.id = entries_fts.rowid
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts, ` + bm25Weights + `)
		LIMIT ?
	`

	rows, err := db.Query(query, match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []FTSHit
	for rows.Next() {
		var h FTSHit
		s := newEntryScanner(&h.Entry)
		dest := append(s.dest(), &h.TitleHL, &h.ProblemHL, &h.SolutionHL, &h.BM25)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := s.finish(); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// MatchTag returns entries with a tag exactly equal (case-insensitively) to term.
func MatchTag(db *sql.DB, term string, limit int) ([]entry.Entry, error) {
	return queryEntries(db, `
		SELECT DISTINCT `+prefixColumns("entries")+`
		FROM entries, json_each(entries.tags) AS t
		WHERE LOWER(t.value) = ?
		LIMIT ?
	`, strings.ToLower(term), limit)
}

// MatchKeyword returns entries with a keyword exactly equal (case-insensitively) to term.
func MatchKeyword(db *sql.DB, term string, limit int) ([]entry.Entry, error) {
	return queryEntries(db, `
		SELECT DISTINCT `+prefixColumns("entries")+`
		FROM entries, json_each(entries.keywords) AS kw
		WHERE LOWER(kw.value) = ?
		LIMIT ?
	`, strings.ToLower(term), limit)
}

// MatchLanguageFramework returns entries whose language or framework column
// equals term (case-insensitively).
func MatchLanguageFramework(db *sql.DB, term string, limit int) ([]entry.Entry, error) {
	lower := strings.ToLower(term)
	return queryEntries(db, `
		SELECT `+entryColumns+` FROM entries
		WHERE LOWER(language) = ? OR LOWER(framework) = ?
		LIMIT ?
	`, lower, lower, limit)
}

// MatchEnvironment returns entries with any environment value in terms.
func MatchEnvironment(db *sql.DB, terms []string, limit int) ([]entry.Entry, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(terms)), ",")
	params := make([]any, 0, len(terms)+1)
	for _, t := range terms {
		params = append(params, strings.ToLower(t))
	}
	params = append(params, limit)
	return queryEntries(db, `
		SELECT DISTINCT `+prefixColumns("entries")+`
		FROM entries, json_each(entries.environment) AS env
		WHERE LOWER(env.value) IN (`+placeholders+`)
		LIMIT ?
	`, params...)
}

// MatchErrorSubstring returns entries whose error_messages contain needle as
// a raw substring. Error strings are stored as JSON arrays the FTS tokenizer
// splits poorly, so pasted stack-trace lines match here instead.
func MatchErrorSubstring(db *sql.DB, needle string, limit int) ([]entry.Entry, error) {
	return queryEntries(db, `
		SELECT `+entryColumns+` FROM entries
		WHERE error_messages LIKE ?
		LIMIT ?
	`, "%"+needle+"%", limit)
}

// MatchErrorSubstringAny returns entries whose error_messages contain any of
// the needles.
func MatchErrorSubstringAny(db *sql.DB, needles []string, limit int) ([]entry.Entry, error) {
	if len(needles) == 0 {
		return nil, nil
	}
	clauses := make([]string, len(needles))
	params := make([]any, 0, len(needles)+1)
	for i, n := range needles {
		clauses[i] = `error_messages LIKE ?`
		params = append(params, "%"+n+"%")
	}
	params = append(params, limit)
	return queryEntries(db, `
		SELECT `+entryColumns+` FROM entries
		WHERE `+strings.Join(clauses, " OR ")+`
		LIMIT ?
	`, params...)
}

// MatchBroadSubstring is the last-resort recall layer: substring match of
// any term across title, problem, solution, tags, error_messages, keywords.
func MatchBroadSubstring(db *sql.DB, terms []string, limit int) ([]entry.Entry, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	clause := `(title LIKE ? OR problem LIKE ? OR solution LIKE ? OR tags LIKE ? OR error_messages LIKE ? OR keywords LIKE ?)`
	clauses := make([]string, len(terms))
	params := make([]any, 0, len(terms)*6+1)
	for i, t := range terms {
		clauses[i] = clause
		p := "%" + t + "%"
		params = append(params, p, p, p, p, p, p)
	}
	params = append(params, limit)
	return queryEntries(db, `
		SELECT `+entryColumns+` FROM entries
		WHERE `+strings.Join(clauses, " OR ")+`
		LIMIT ?
	`, params...)
}

func queryEntries(db *sql.DB, query string, params ...any) ([]entry.Entry, error) {
	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

package db

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hivemindhq/hivemind/internal/entry"
	"github.com/hivemindhq/hivemind/internal/errors"
)

const entryColumns = `id, title, category, tags, problem, solution, why, gotchas,
	learned_from, submitted_by, created_at, upvotes, language, framework,
	severity, environment, error_messages, version_info, context, keywords,
	code_snippets, related_entries`

// storeErr classifies a store-layer failure. Connection-level failures (the
// handle was closed, the database file cannot be opened) become
// STORE_UNAVAILABLE so callers can tell "the store is gone" apart from "this
// query is broken"; everything else stays INTERNAL.
func storeErr(err error) *errors.HiveError {
	if stderrors.Is(err, sql.ErrConnDone) {
		return errors.NewStoreUnavailable(err)
	}
	msg := err.Error()
	if strings.Contains(msg, "database is closed") || strings.Contains(msg, "unable to open database") {
		return errors.NewStoreUnavailable(err)
	}
	return storeErr(err)
}

// InsertEntry stores a new entry and assigns its id. The insert and the FTS
// trigger run in a single transaction: either both the row and its shadow
// index entry exist afterwards, or neither does.
func InsertEntry(db *sql.DB, e *entry.Entry) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.SubmittedBy == "" {
		e.SubmittedBy = "anonymous"
	}

	cols, err := packCollections(e)
	if err != nil {
		return storeErr(err)
	}

	tx, err := db.Begin()
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO entries (
			title, category, tags, problem, solution, why, gotchas,
			learned_from, submitted_by, created_at, upvotes, language,
			framework, severity, environment, error_messages, version_info,
			context, keywords, code_snippets, related_entries
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Title, e.Category, cols.tags, e.Problem, e.Solution,
		toNullString(e.Why), cols.gotchas, toNullString(e.LearnedFrom),
		e.SubmittedBy, e.CreatedAt, e.Upvotes, toNullString(e.Language),
		toNullString(e.Framework), e.Severity, cols.environment,
		cols.errorMessages, toNullString(e.VersionInfo),
		toNullString(e.Context), cols.keywords, cols.codeSnippets,
		cols.relatedEntries,
	)
	if err != nil {
		return storeErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}

	e.ID = id
	return nil
}

// GetEntry retrieves an entry by id.
func GetEntry(db *sql.DB, id int64) (*entry.Entry, error) {
	row := db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return e, nil
}

// ReplaceEntry rewrites every mutable field of an existing entry in one
// transaction. id and created_at are immutable; the FTS update trigger keeps
// the shadow index exact. This is the administrative full-replace path —
// entries are never partially merged.
func ReplaceEntry(db *sql.DB, e *entry.Entry) error {
	cols, err := packCollections(e)
	if err != nil {
		return storeErr(err)
	}
	if e.SubmittedBy == "" {
		e.SubmittedBy = "anonymous"
	}

	tx, err := db.Begin()
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE entries SET
			title = ?, category = ?, tags = ?, problem = ?, solution = ?,
			why = ?, gotchas = ?, learned_from = ?, submitted_by = ?,
			upvotes = ?, language = ?, framework = ?, severity = ?,
			environment = ?, error_messages = ?, version_info = ?,
			context = ?, keywords = ?, code_snippets = ?, related_entries = ?
		WHERE id = ?
	`,
		e.Title, e.Category, cols.tags, e.Problem, e.Solution,
		toNullString(e.Why), cols.gotchas, toNullString(e.LearnedFrom),
		e.SubmittedBy, e.Upvotes, toNullString(e.Language),
		toNullString(e.Framework), e.Severity, cols.environment,
		cols.errorMessages, toNullString(e.VersionInfo),
		toNullString(e.Context), cols.keywords, cols.codeSnippets,
		cols.relatedEntries, e.ID,
	)
	if err != nil {
		return storeErr(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return errors.NewNotFound(e.ID)
	}
	return wrapCommit(tx)
}

// DeleteEntry removes an entry. Administrative only — no end-user delete
// path exists. The FTS delete trigger removes the shadow row in the same
// transaction.
func DeleteEntry(db *sql.DB, id int64) error {
	tx, err := db.Begin()
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return storeErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return errors.NewNotFound(id)
	}
	return wrapCommit(tx)
}

// ListFilters narrows ListEntries results. Zero values mean no filter.
type ListFilters struct {
	Category    string
	Tag         string
	Language    string
	Framework   string
	Severity    string
	Environment string
	Limit       int
	Offset      int
	Cursor      int64 // return entries with id < Cursor; overrides Offset
}

// ListEntries returns entries newest-first with optional metadata filters.
func ListEntries(db *sql.DB, f ListFilters) ([]entry.Entry, error) {
	var conditions []string
	var params []any

	query := `SELECT ` + prefixColumns("entries") + ` FROM entries`
	if f.Tag != "" {
		query += `, json_each(entries.tags) AS tag_each`
		conditions = append(conditions, `tag_each.value = ?`)
		params = append(params, f.Tag)
	}
	if f.Category != "" {
		conditions = append(conditions, `entries.category = ?`)
		params = append(params, f.Category)
	}
	if f.Language != "" {
		conditions = append(conditions, `entries.language = ?`)
		params = append(params, f.Language)
	}
	if f.Framework != "" {
		conditions = append(conditions, `entries.framework = ?`)
		params = append(params, f.Framework)
	}
	if f.Severity != "" {
		conditions = append(conditions, `entries.severity = ?`)
		params = append(params, f.Severity)
	}
	if f.Environment != "" {
		conditions = append(conditions, `EXISTS (SELECT 1 FROM json_each(entries.environment) WHERE value = ?)`)
		params = append(params, f.Environment)
	}
	if f.Cursor > 0 {
		conditions = append(conditions, `entries.id < ?`)
		params = append(params, f.Cursor)
	}

	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY entries.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		params = append(params, f.Limit)
	}
	if f.Offset > 0 && f.Cursor == 0 {
		query += ` OFFSET ?`
		params = append(params, f.Offset)
	}

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Stats summarizes the store for the stats endpoint.
type Stats struct {
	Total        int            `json:"total"`
	ByCategory   map[string]int `json:"by_category"`
	Tags         map[string]int `json:"tags"`
	Languages    map[string]int `json:"languages"`
	Frameworks   map[string]int `json:"frameworks"`
	Severities   map[string]int `json:"severities"`
	Environments map[string]int `json:"environments"`
}

// GetStats computes entry counts and metadata histograms.
func GetStats(db *sql.DB) (*Stats, error) {
	s := &Stats{
		ByCategory:   map[string]int{},
		Tags:         map[string]int{},
		Languages:    map[string]int{},
		Frameworks:   map[string]int{},
		Severities:   map[string]int{},
		Environments: map[string]int{},
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&s.Total); err != nil {
		return nil, storeErr(err)
	}

	grouped := []struct {
		query string
		dest  map[string]int
	}{
		{`SELECT category, COUNT(*) FROM entries GROUP BY category`, s.ByCategory},
		{`SELECT language, COUNT(*) FROM entries WHERE language IS NOT NULL AND language != '' GROUP BY language`, s.Languages},
		{`SELECT framework, COUNT(*) FROM entries WHERE framework IS NOT NULL AND framework != '' GROUP BY framework`, s.Frameworks},
		{`SELECT severity, COUNT(*) FROM entries WHERE severity != '' GROUP BY severity`, s.Severities},
		{`SELECT value, COUNT(*) FROM entries, json_each(entries.tags) GROUP BY value`, s.Tags},
		{`SELECT value, COUNT(*) FROM entries, json_each(entries.environment) GROUP BY value`, s.Environments},
	}
	for _, g := range grouped {
		if err := scanCounts(db, g.query, g.dest); err != nil {
			return nil, storeErr(err)
		}
	}

	return s, nil
}

func scanCounts(db *sql.DB, query string, dest map[string]int) error {
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}

// packedCollections holds the JSON-encoded collection columns.
type packedCollections struct {
	tags, gotchas, environment, errorMessages string
	keywords, codeSnippets, relatedEntries    string
}

func packCollections(e *entry.Entry) (packedCollections, error) {
	var c packedCollections
	var err error
	if c.tags, err = packJSON(e.Tags); err != nil {
		return c, err
	}
	if c.gotchas, err = packJSON(e.Gotchas); err != nil {
		return c, err
	}
	if c.environment, err = packJSON(e.Environment); err != nil {
		return c, err
	}
	if c.errorMessages, err = packJSON(e.ErrorMessages); err != nil {
		return c, err
	}
	if c.keywords, err = packJSON(e.Keywords); err != nil {
		return c, err
	}
	if c.codeSnippets, err = packJSON(e.CodeSnippets); err != nil {
		return c, err
	}
	if c.relatedEntries, err = packJSON(e.RelatedEntries); err != nil {
		return c, err
	}
	return c, nil
}

// packJSON marshals a collection, normalizing nil to the empty array so the
// stored text and the FTS shadow columns stay deterministic.
func packJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// entryScanner stages the nullable and JSON-encoded columns of an entry row
// during a Scan, then decodes them into the target Entry.
type entryScanner struct {
	e *entry.Entry

	why, learnedFrom, language      sql.NullString
	framework, versionInfo, context sql.NullString

	tags, gotchas, environment   string
	errorMessages, keywords      string
	codeSnippets, relatedEntries string
}

func newEntryScanner(e *entry.Entry) *entryScanner {
	return &entryScanner{e: e}
}

// dest returns scan destinations in entryColumns order.
func (s *entryScanner) dest() []any {
	e := s.e
	return []any{
		&e.ID, &e.Title, &e.Category, &s.tags, &e.Problem, &e.Solution,
		&s.why, &s.gotchas, &s.learnedFrom, &e.SubmittedBy, &e.CreatedAt,
		&e.Upvotes, &s.language, &s.framework, &e.Severity, &s.environment,
		&s.errorMessages, &s.versionInfo, &s.context, &s.keywords,
		&s.codeSnippets, &s.relatedEntries,
	}
}

// finish decodes the staged columns into the Entry.
func (s *entryScanner) finish() error {
	e := s.e
	e.Why = fromNullString(s.why)
	e.LearnedFrom = fromNullString(s.learnedFrom)
	e.Language = fromNullString(s.language)
	e.Framework = fromNullString(s.framework)
	e.VersionInfo = fromNullString(s.versionInfo)
	e.Context = fromNullString(s.context)

	for _, col := range []struct {
		raw  string
		dest any
	}{
		{s.tags, &e.Tags},
		{s.gotchas, &e.Gotchas},
		{s.environment, &e.Environment},
		{s.errorMessages, &e.ErrorMessages},
		{s.keywords, &e.Keywords},
		{s.codeSnippets, &e.CodeSnippets},
		{s.relatedEntries, &e.RelatedEntries},
	} {
		if col.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return err
		}
	}
	return nil
}

// scanEntry scans a single row (in entryColumns order) into an Entry.
func scanEntry(row rowScanner) (*entry.Entry, error) {
	var e entry.Entry
	s := newEntryScanner(&e)
	if err := row.Scan(s.dest()...); err != nil {
		return nil, err
	}
	if err := s.finish(); err != nil {
		return nil, err
	}
	return &e, nil
}

// collectEntries drains a result set of entryColumns rows.
func collectEntries(rows *sql.Rows) ([]entry.Entry, error) {
	var out []entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func wrapCommit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}

// prefixColumns qualifies entryColumns with a table alias for joins.
func prefixColumns(table string) string {
	cols := strings.Split(entryColumns, ",")
	for i, c := range cols {
		cols[i] = table + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// toNullString converts "" to NULL so optional fields stay absent in the
// stored row and the shadow index.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// fromNullString converts a NULL column back to "".
func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

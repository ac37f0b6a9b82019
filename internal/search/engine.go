// Package search implements the multi-layer ranking engine. Each layer is
// one retrieval strategy (exact phrase, synonym groups, prefix, metadata
// equality, error-string substring, broad fallback) with a fixed confidence
// score; results are merged keeping the maximum score per entry, title
// matches get a flat boost, and weak tails are cut relative to the top
// score. Layers fail independently: a broken FTS expression or store error
// silently removes that layer, never the whole search.
package search

import (
	"database/sql"
	"math"
	"sort"
	"strings"

	"github.com/hivemindhq/hivemind/internal/db"
	"github.com/hivemindhq/hivemind/internal/entry"
	"github.com/hivemindhq/hivemind/internal/query"
)

// Weights holds the per-layer score tiers. The exact magnitudes are tuning
// constants, not contract — only the ordering between layers matters
// (precision above recall, exact above prefix above substring).
type Weights struct {
	ExactPhrase  float64 // all significant terms, phrase-quoted, ANDed
	SynonymGroup float64 // terms OR-grouped with synonyms, groups ANDed
	PrefixAnd    float64 // terms as prefixes, ANDed

	SingleExact   float64 // single-term query: bare term
	SingleSynonym float64 // single-term query: each synonym
	SinglePrefix  float64 // single-term query: prefix form

	OrFull float64 // OR fallback, every term matched
	OrHigh float64 // OR fallback, >=60% of terms matched
	OrLow  float64 // OR fallback, at least the minimum matched

	MetaStrong     float64 // >=80% of terms across >=2 metadata classes
	MetaMostTerms  float64 // >=80% of terms, single class
	MetaMultiClass float64 // few terms but >=2 classes
	MetaSingleTerm float64 // single-term query, any metadata match
	MetaWeak       float64 // multi-term query, one term matched

	ErrorVerbatim float64 // full raw query substring-matched an error string
	ErrorTerm     float64 // individual specific term matched

	Environment float64
	Broad       float64

	TitleBoost float64 // added when a significant term appears in the title

	NoiseRatio float64 // drop results scoring below NoiseRatio * top score
	MaxResults int
}

// DefaultWeights returns the empirically tuned tier values.
func DefaultWeights() Weights {
	return Weights{
		ExactPhrase:    100,
		SynonymGroup:   95,
		PrefixAnd:      85,
		SingleExact:    90,
		SingleSynonym:  85,
		SinglePrefix:   75,
		OrFull:         45,
		OrHigh:         35,
		OrLow:          20,
		MetaStrong:     80,
		MetaMostTerms:  70,
		MetaMultiClass: 55,
		MetaSingleTerm: 65,
		MetaWeak:       30,
		ErrorVerbatim:  90,
		ErrorTerm:      75,
		Environment:    60,
		Broad:          30,
		TitleBoost:     15,
		NoiseRatio:     0.4,
		MaxResults:     50,
	}
}

// Per-layer row limits.
const (
	ftsLimit       = 30
	metaLimit      = 20
	errorFullLimit = 10
	broadLimit     = 20
)

// errorNoise lists generic words that appear in nearly every stored error
// string; substring-matching them would return most of the table.
var errorNoise = map[string]bool{
	"error": true, "failed": true, "cannot": true, "unable": true,
	"invalid": true, "could": true, "found": true, "module": true,
}

// minErrorTermLen is the shortest token worth substring-matching against
// error strings; minVerbatimLen the shortest raw query treated as a pasted
// error line.
const (
	minErrorTermLen = 5
	minVerbatimLen  = 8
)

// fallbackThreshold is the result count below which the recall-widening
// layers (OR fallback, broad substring) kick in.
const fallbackThreshold = 3

// Result is one ranked search hit.
type Result struct {
	Entry entry.Entry
	Score float64
}

// Engine runs ranked searches against the entry store.
type Engine struct {
	store *sql.DB
	w     Weights
}

// NewEngine creates an engine with default weights.
func NewEngine(store *sql.DB) *Engine {
	return NewEngineWithWeights(store, DefaultWeights())
}

// NewEngineWithWeights creates an engine with custom score tiers.
func NewEngineWithWeights(store *sql.DB, w Weights) *Engine {
	return &Engine{store: store, w: w}
}

// Search runs every layer over the normalized query and returns the merged,
// deduplicated, noise-filtered ranking. The caller must reject empty
// queries; q.Empty() here yields an empty result, not an error.
func (eng *Engine) Search(q query.Normalized) []Result {
	if q.Empty() {
		return nil
	}

	c := newCollector()

	eng.fullTextLayers(q, c)
	eng.orFallbackLayer(q, c)
	eng.metadataLayer(q, c)
	eng.errorSubstringLayer(q, c)
	eng.environmentLayer(q, c)
	eng.broadFallbackLayer(q, c)

	eng.applyTitleBoost(q, c)

	return eng.finalize(c)
}

// fullTextLayers runs the precision FTS layers (exact AND, synonym-grouped
// AND, prefix AND, and the single-term ladder).
func (eng *Engine) fullTextLayers(q query.Normalized, c *collector) {
	multi := len(q.Terms) > 1

	if multi {
		c.addHits(eng.fts(andPhrases(q.Terms)), eng.w.ExactPhrase)
	}

	// Synonym-grouped AND: only when expansion actually added something,
	// i.e. the expression differs from the exact-phrase layer.
	if len(q.Expanded) > 1 && len(q.Expanded) != len(q.Terms) {
		c.addHits(eng.fts(andSynonymGroups(q.Terms)), eng.w.SynonymGroup)
	}

	if multi {
		c.addHits(eng.fts(andPrefixes(q.Terms)), eng.w.PrefixAnd)
	}

	// Single-term ladder: nothing to AND, so try the bare term, then each
	// synonym, then the prefix form, at descending confidence.
	if !multi {
		c.addHits(eng.fts(phrase(q.Expanded[0])), eng.w.SingleExact)
		for _, syn := range q.Expanded[1:] {
			c.addHits(eng.fts(phrase(syn)), eng.w.SingleSynonym)
		}
		c.addHits(eng.fts(prefix(q.Expanded[0])), eng.w.SinglePrefix)
	}
}

// orFallbackLayer widens recall when the precision layers came up short:
// each significant expanded term is queried individually and entries are
// scored by the fraction of terms they matched. Requires at least half the
// terms to match (one for single-term queries) so a lone incidental word
// cannot drag in unrelated entries.
func (eng *Engine) orFallbackLayer(q query.Normalized, c *collector) {
	if c.len() >= fallbackThreshold || len(q.Expanded) <= 1 {
		return
	}

	sigTerms := significantOnly(q.Expanded)
	if len(sigTerms) == 0 {
		return
	}

	matchCounts := make(map[int64]int)
	rowsByID := make(map[int64]entry.Entry)
	for _, term := range sigTerms {
		hits, err := db.MatchFullText(eng.store, phrase(term), ftsLimit)
		if err != nil {
			continue // skip individual term
		}
		for _, h := range hits {
			matchCounts[h.Entry.ID]++
			if _, ok := rowsByID[h.Entry.ID]; !ok {
				rowsByID[h.Entry.ID] = h.Entry
			}
		}
	}

	minMatches := 1
	if len(q.Terms) >= 2 {
		minMatches = int(math.Ceil(float64(len(sigTerms)) * 0.5))
	}

	for id, count := range matchCounts {
		if count < minMatches {
			continue
		}
		ratio := float64(count) / float64(len(sigTerms))
		score := eng.w.OrLow
		switch {
		case ratio >= 1:
			score = eng.w.OrFull
		case ratio >= 0.6:
			score = eng.w.OrHigh
		}
		c.add(rowsByID[id], score)
	}
}

// metadataLayer matches each expanded term exactly against three metadata
// classes (tag values, the language/framework columns, keyword values) and
// scores entries by how many distinct terms they matched and across how
// many classes.
func (eng *Engine) metadataLayer(q query.Normalized, c *collector) {
	type metaTrack struct {
		terms   map[string]bool
		classes map[string]bool
		row     entry.Entry
	}
	tracked := make(map[int64]*metaTrack)

	track := func(rows []entry.Entry, err error, term, class string) {
		if err != nil {
			return // layer query failed, contributes nothing
		}
		for _, e := range rows {
			t, ok := tracked[e.ID]
			if !ok {
				t = &metaTrack{
					terms:   make(map[string]bool),
					classes: make(map[string]bool),
					row:     e,
				}
				tracked[e.ID] = t
			}
			t.terms[strings.ToLower(term)] = true
			t.classes[class] = true
		}
	}

	for _, term := range q.Expanded {
		rows, err := db.MatchTag(eng.store, term, metaLimit)
		track(rows, err, term, "tag")

		rows, err = db.MatchLanguageFramework(eng.store, term, metaLimit)
		track(rows, err, term, "column")

		rows, err = db.MatchKeyword(eng.store, term, metaLimit)
		track(rows, err, term, "keyword")
	}

	for _, t := range tracked {
		termRatio := float64(len(t.terms)) / float64(len(q.Terms))
		multiClass := len(t.classes) >= 2

		var score float64
		switch {
		case termRatio >= 0.8 && multiClass:
			score = eng.w.MetaStrong
		case termRatio >= 0.8:
			score = eng.w.MetaMostTerms
		case multiClass:
			score = eng.w.MetaMultiClass
		case len(q.Terms) == 1:
			score = eng.w.MetaSingleTerm
		default:
			score = eng.w.MetaWeak
		}
		c.add(t.row, score)
	}
}

// errorSubstringLayer matches pasted error text. Error strings live in JSON
// arrays that FTS tokenizes poorly, so this layer uses raw substring match:
// first the whole query verbatim (catches a pasted stack-trace line), then
// each specific term long enough to carry signal.
func (eng *Engine) errorSubstringLayer(q query.Normalized, c *collector) {
	var errorTerms []string
	for _, w := range q.Expanded {
		if len(w) >= minErrorTermLen && query.Significant(w) && !errorNoise[strings.ToLower(w)] {
			errorTerms = append(errorTerms, w)
		}
	}
	if len(errorTerms) == 0 {
		return
	}

	if len(q.Raw) >= minVerbatimLen {
		rows, err := db.MatchErrorSubstring(eng.store, q.Raw, errorFullLimit)
		if err == nil {
			c.addAll(rows, eng.w.ErrorVerbatim)
		}
	}

	rows, err := db.MatchErrorSubstringAny(eng.store, errorTerms, metaLimit)
	if err == nil {
		c.addAll(rows, eng.w.ErrorTerm)
	}
}

func (eng *Engine) environmentLayer(q query.Normalized, c *collector) {
	rows, err := db.MatchEnvironment(eng.store, q.Expanded, metaLimit)
	if err == nil {
		c.addAll(rows, eng.w.Environment)
	}
}

// broadFallbackLayer is the lowest-confidence last resort, run only when
// everything above still left fewer than three results.
func (eng *Engine) broadFallbackLayer(q query.Normalized, c *collector) {
	if c.len() >= fallbackThreshold {
		return
	}
	terms := significantOnly(q.Expanded)
	if len(terms) == 0 {
		return
	}
	rows, err := db.MatchBroadSubstring(eng.store, terms, broadLimit)
	if err == nil {
		c.addAll(rows, eng.w.Broad)
	}
}

// applyTitleBoost adds a flat bonus to any result whose title contains a
// significant query term. Title matches are a strong relevance signal no
// matter which layer surfaced the entry.
func (eng *Engine) applyTitleBoost(q query.Normalized, c *collector) {
	lowerTerms := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		lowerTerms[i] = strings.ToLower(t)
	}
	for id, r := range c.results {
		lowerTitle := strings.ToLower(r.Entry.Title)
		for _, t := range lowerTerms {
			if strings.Contains(lowerTitle, t) {
				c.results[id].Score += eng.w.TitleBoost
				break
			}
		}
	}
}

// finalize sorts by score, suppresses the weak tail, and caps the list.
func (eng *Engine) finalize(c *collector) []Result {
	out := make([]Result, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.results[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	// Noise suppression: with multiple results, drop anything below
	// NoiseRatio of the top score. A recall-only query keeps its full
	// spread because its top score is already low.
	if len(out) > 1 {
		threshold := out[0].Score * eng.w.NoiseRatio
		kept := out[:0]
		for _, r := range out {
			if r.Score >= threshold {
				kept = append(kept, r)
			}
		}
		out = kept
	}

	if len(out) > eng.w.MaxResults {
		out = out[:eng.w.MaxResults]
	}
	return out
}

// fts runs one FTS layer query, returning nil on failure so the layer is
// simply skipped.
func (eng *Engine) fts(match string) []db.FTSHit {
	hits, err := db.MatchFullText(eng.store, match, ftsLimit)
	if err != nil {
		return nil
	}
	return hits
}

// collector merges layer results, keeping the maximum score seen per entry
// and first-seen insertion order for stable ties.
type collector struct {
	results map[int64]*Result
	order   []int64
}

func newCollector() *collector {
	return &collector{results: make(map[int64]*Result)}
}

func (c *collector) add(e entry.Entry, score float64) {
	if r, ok := c.results[e.ID]; ok {
		if score > r.Score {
			r.Score = score
		}
		return
	}
	c.results[e.ID] = &Result{Entry: e, Score: score}
	c.order = append(c.order, e.ID)
}

func (c *collector) addAll(rows []entry.Entry, score float64) {
	for _, e := range rows {
		c.add(e, score)
	}
}

func (c *collector) addHits(hits []db.FTSHit, score float64) {
	for _, h := range hits {
		c.add(h.Entry, score)
	}
}

func (c *collector) len() int { return len(c.order) }

// FTS expression builders. Terms are phrase-quoted so punctuation inside a
// token (next.js, c++) cannot break the MATCH syntax; a still-malformed
// expression just fails that layer.

func phrase(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

func prefix(term string) string {
	return phrase(term) + "*"
}

func andPhrases(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = phrase(t)
	}
	return strings.Join(quoted, " AND ")
}

func andPrefixes(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = prefix(t)
	}
	return strings.Join(quoted, " AND ")
}

// andSynonymGroups ORs each term with its synonyms, then ANDs the groups:
// (("js" OR "javascript") AND ("hoisting")).
func andSynonymGroups(terms []string) string {
	groups := make([]string, len(terms))
	for i, t := range terms {
		all := append([]string{t}, query.Synonyms[strings.ToLower(t)]...)
		if len(all) == 1 {
			groups[i] = phrase(all[0])
			continue
		}
		quoted := make([]string, len(all))
		for j, s := range all {
			quoted[j] = phrase(s)
		}
		groups[i] = "(" + strings.Join(quoted, " OR ") + ")"
	}
	return strings.Join(groups, " AND ")
}

func significantOnly(terms []string) []string {
	var out []string
	for _, t := range terms {
		if query.Significant(t) {
			out = append(out, t)
		}
	}
	return out
}

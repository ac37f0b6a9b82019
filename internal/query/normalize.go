// Package query turns a raw search string into the token sets the ranking
// engine consumes. Normalization is a pure function: no I/O, identical input
// always yields identical output.
package query

import "strings"

// Normalized is the output of Normalize.
type Normalized struct {
	// Raw is the sanitized query (quotes stripped, trimmed), used for
	// verbatim substring matching against pasted error messages.
	Raw string

	// Terms are the significant tokens in original casing, used by the
	// exact and phrase layers.
	Terms []string

	// Expanded is Terms plus synonyms, deduplicated. Used by the broader
	// layers (metadata, substring, fallback).
	Expanded []string
}

// Empty reports whether the query produced no usable tokens. Callers must
// reject empty queries before invoking the ranking engine.
func (n Normalized) Empty() bool { return len(n.Terms) == 0 }

// Normalize sanitizes and tokenizes a raw query, partitions tokens into
// significant and noise, and expands significant tokens through the synonym
// table. If every token is a stop word, all raw tokens are kept so an
// all-stopword query still returns something.
func Normalize(raw string) Normalized {
	sanitized := strings.TrimSpace(strings.Map(stripQuote, raw))
	words := strings.Fields(sanitized)

	if len(words) == 0 {
		return Normalized{Raw: sanitized}
	}

	var significant []string
	for _, w := range words {
		if Significant(w) {
			significant = append(significant, w)
		}
	}
	if len(significant) == 0 {
		significant = words
	}

	return Normalized{
		Raw:      sanitized,
		Terms:    significant,
		Expanded: Expand(significant),
	}
}

// Significant reports whether a token survives stop-word filtering: longer
// than 2 characters and not a common function word.
func Significant(w string) bool {
	return len(w) > 2 && !stopWords[strings.ToLower(w)]
}

// Expand unions each term with its synonyms, preserving first-seen order
// and deduplicating case-sensitively (terms keep their original casing,
// synonyms are lowercase table entries).
func Expand(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	expanded := make([]string, 0, len(terms))
	add := func(w string) {
		if !seen[w] {
			seen[w] = true
			expanded = append(expanded, w)
		}
	}
	for _, t := range terms {
		add(t)
	}
	for _, t := range terms {
		for _, syn := range Synonyms[strings.ToLower(t)] {
			add(syn)
		}
	}
	return expanded
}

func stripQuote(r rune) rune {
	if r == '\'' || r == '"' {
		return -1
	}
	return r
}

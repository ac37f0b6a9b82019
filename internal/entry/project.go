package entry

import (
	"encoding/json"
	"strings"
)

// ToMap converts an entry into a generic map with empty values stripped.
// Agents consume these payloads verbatim, so nulls, empty strings, empty
// arrays and a zero upvote count are omitted to save tokens.
func ToMap(e *Entry) map[string]any {
	raw, err := json.Marshal(e)
	if err != nil {
		return map[string]any{"id": e.ID, "title": e.Title}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"id": e.ID, "title": e.Title}
	}
	return StripEmpty(m)
}

// StripEmpty removes null, empty-string, and empty-array values from a map.
func StripEmpty(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
		case []any:
			if len(val) == 0 {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// PickFields keeps only the requested fields, always including id and title
// so the result stays identifiable.
func PickFields(m map[string]any, fields []string) map[string]any {
	keep := map[string]bool{"id": true, "title": true}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			keep[f] = true
		}
	}
	out := make(map[string]any, len(keep))
	for k, v := range m {
		if keep[k] {
			out[k] = v
		}
	}
	return out
}

// Truncate shortens text to max bytes, appending an ellipsis when cut. It
// backs up to a rune boundary so multi-byte characters are never split.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && (text[cut]&0xC0) == 0x80 {
		cut--
	}
	return text[:cut] + "..."
}

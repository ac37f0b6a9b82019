package entry

// Entry is a single knowledge-base record: a problem/solution pair plus the
// structured metadata that makes it findable. Optional scalar fields use ""
// for absent; the db layer maps those to NULL.
type Entry struct {
	// ID is a monotonically increasing integer assigned at creation.
	ID int64 `json:"id"`

	Title    string `json:"title"`
	Category string `json:"category"` // pattern|gotcha|principle|snippet|debug

	// Problem describes what goes wrong; Solution how to fix it.
	Problem  string `json:"problem"`
	Solution string `json:"solution"`

	// Why is an optional root-cause explanation.
	Why string `json:"why,omitempty"`

	Severity  string `json:"severity"` // critical|major|moderate|minor|tip
	Language  string `json:"language,omitempty"`
	Framework string `json:"framework,omitempty"`

	Context     string `json:"context,omitempty"`
	VersionInfo string `json:"version_info,omitempty"`
	LearnedFrom string `json:"learned_from,omitempty"`
	SubmittedBy string `json:"submitted_by"`

	// CreatedAt is the Unix timestamp when the entry was created. Immutable.
	CreatedAt int64 `json:"created_at"`
	Upvotes   int   `json:"upvotes,omitempty"`

	Tags          []string `json:"tags"`
	Keywords      []string `json:"keywords"`
	Gotchas       []string `json:"gotchas,omitempty"`
	Environment   []string `json:"environment,omitempty"`
	ErrorMessages []string `json:"error_messages,omitempty"`

	CodeSnippets []CodeSnippet `json:"code_snippets,omitempty"`

	// RelatedEntries holds ids of related entries. Dangling references are
	// tolerated: targets are never checked for existence, which allows
	// forward references before the target exists.
	RelatedEntries []int64 `json:"related_entries,omitempty"`
}

// CodeSnippet is a code example attached to an entry.
type CodeSnippet struct {
	Code        string `json:"code"`
	Lang        string `json:"lang,omitempty"`
	Description string `json:"description,omitempty"`
}

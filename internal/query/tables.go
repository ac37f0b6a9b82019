package query

// Synonyms maps common abbreviations agents type to the long forms entries
// actually carry. Lookup is by lowercased token.
var Synonyms = map[string][]string{
	"js":       {"javascript"},
	"ts":       {"typescript"},
	"py":       {"python"},
	"rb":       {"ruby"},
	"rs":       {"rust"},
	"cpp":      {"c++", "cplusplus"},
	"csharp":   {"c#"},
	"next":     {"nextjs", "next.js"},
	"nextjs":   {"next.js", "next"},
	"react":    {"reactjs", "react.js"},
	"vue":      {"vuejs", "vue.js"},
	"node":     {"nodejs", "node.js"},
	"nodejs":   {"node.js", "node"},
	"express":  {"expressjs"},
	"deno":     {"denojs"},
	"postgres": {"postgresql", "psql"},
	"mongo":    {"mongodb"},
	"k8s":      {"kubernetes"},
	"tf":       {"terraform"},
	"gh":       {"github"},
	"aws":      {"amazon web services"},
	"gcp":      {"google cloud"},
	"css":      {"stylesheet", "styling"},
	"env":      {"environment"},
	"config":   {"configuration"},
	"auth":     {"authentication", "authorization"},
	"deps":     {"dependencies"},
	"pkg":      {"package"},
	"db":       {"database"},
	"err":      {"error"},
	"vars":     {"variables"},
	"props":    {"properties"},
	"fn":       {"function"},
	"async":    {"asynchronous"},
	"sync":     {"synchronous"},
	"ssr":      {"server side rendering", "server-side-rendering"},
	"csr":      {"client side rendering"},
	"ci":       {"continuous integration"},
	"cd":       {"continuous deployment"},
}

// stopWords are function words too common to carry signal. A query made
// entirely of these falls back to using all of its raw tokens.
var stopWords = makeSet(
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "can", "shall", "to", "of", "in", "for",
	"on", "with", "at", "by", "from", "as", "into", "through", "during",
	"before", "after", "above", "below", "between", "out", "off", "over",
	"under", "again", "further", "then", "once", "here", "there", "when",
	"where", "why", "how", "all", "each", "every", "both", "few", "more",
	"most", "other", "some", "such", "no", "nor", "not", "only", "own",
	"same", "so", "than", "too", "very", "just", "because", "but", "and",
	"or", "if", "while", "about", "up", "it", "its", "this", "that",
	"what", "which", "who", "whom", "these", "those", "i", "me", "my",
	"we", "our", "you", "your", "he", "him", "she", "her", "they", "them",
	"get", "got", "make", "made", "use", "used", "using", "work", "works",
)

func makeSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

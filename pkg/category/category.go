// Package category assigns coarse topical categories to documents and queries
// using weighted keyword scoring.
package category

// Category is a topical label computed from text.
type Category string

const (
	Film   Category = "film"
	Book   Category = "book"
	Person Category = "person"

	// Other is returned for documents with no category signal.
	Other Category = "other"

	// General is returned for queries with no category signal. A general
	// query never excludes documents.
	General Category = "general"
)

// IsSentinel reports whether c carries no topical signal.
func (c Category) IsSentinel() bool {
	return c == Other || c == General || c == ""
}

// Keywords is the keyword set for a single category. Terms are matched
// case-insensitively after Unicode normalization.
type Keywords struct {
	Category Category

	// Document terms are counted as substrings in stored content.
	Document []string

	// Query terms are counted as substrings and as whole tokens in questions.
	Query []string

	// Diagnostic terms drive the co-occurrence and lead bonuses.
	Diagnostic []string
}

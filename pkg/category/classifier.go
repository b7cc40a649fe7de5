package category

import (
	"strings"

	"go.uber.org/zap"
)

// Config holds the scoring constants of a Classifier.
type Config struct {
	// CooccurrenceBonus is added when at least MinCooccurrence distinct
	// diagnostic terms of a category appear together.
	CooccurrenceBonus int

	// MinCooccurrence is the number of distinct diagnostic terms required
	// for the co-occurrence bonus.
	MinCooccurrence int

	// LeadBonus is added to a document category when one of its diagnostic
	// terms appears in the document's opening.
	LeadBonus int

	// LeadChars caps the opening to the first line or this many characters,
	// whichever is shorter.
	LeadChars int

	// ExactWordWeight is the weight of a whole token match in a query.
	ExactWordWeight int
}

// DefaultConfig returns the reference scoring constants.
func DefaultConfig() Config {
	return Config{
		CooccurrenceBonus: 5,
		MinCooccurrence:   2,
		LeadBonus:         10,
		LeadChars:         100,
		ExactWordWeight:   2,
	}
}

// Classifier scores text against per-category keyword sets. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	cfg    Config
	sets   []Keywords
	logger *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithKeywords replaces the built-in keyword sets. The order of sets is the
// tie-break priority, highest first.
func WithKeywords(sets ...Keywords) Option {
	return func(c *Classifier) {
		c.sets = sets
	}
}

// NewClassifier creates a Classifier. Zero valued fields of cfg take their
// DefaultConfig values.
func NewClassifier(cfg Config, logger *zap.Logger, opts ...Option) *Classifier {
	def := DefaultConfig()
	if cfg.CooccurrenceBonus == 0 {
		cfg.CooccurrenceBonus = def.CooccurrenceBonus
	}
	if cfg.MinCooccurrence == 0 {
		cfg.MinCooccurrence = def.MinCooccurrence
	}
	if cfg.LeadBonus == 0 {
		cfg.LeadBonus = def.LeadBonus
	}
	if cfg.LeadChars == 0 {
		cfg.LeadChars = def.LeadChars
	}
	if cfg.ExactWordWeight == 0 {
		cfg.ExactWordWeight = def.ExactWordWeight
	}

	c := &Classifier{
		cfg:    cfg,
		sets:   DefaultKeywords(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	folded := make([]Keywords, len(c.sets))
	for i, set := range c.sets {
		folded[i] = Keywords{
			Category:   set.Category,
			Document:   foldAll(set.Document),
			Query:      foldAll(set.Query),
			Diagnostic: foldAll(set.Diagnostic),
		}
	}
	c.sets = folded

	return c
}

// ClassifyDocument returns the category of stored content, or Other when no
// keyword matches.
func (c *Classifier) ClassifyDocument(text string) Category {
	return c.pick(c.DocumentScores(text), Other)
}

// ClassifyQuery returns the category of a user question, or General when no
// keyword matches.
func (c *Classifier) ClassifyQuery(text string) Category {
	return c.pick(c.QueryScores(text), General)
}

// DocumentScores returns the per-category score of stored content.
func (c *Classifier) DocumentScores(text string) map[Category]int {
	folded := fold(text)
	opening := lead(folded, c.cfg.LeadChars)

	scores := make(map[Category]int, len(c.sets))
	for _, set := range c.sets {
		score := 0
		for _, kw := range set.Document {
			score += strings.Count(folded, kw)
		}

		score += c.cooccurrence(folded, set.Diagnostic)

		if containsAny(opening, set.Diagnostic) {
			score += c.cfg.LeadBonus
		}

		scores[set.Category] = score
	}

	return scores
}

// QueryScores returns the per-category score of a question: substring
// matches at weight 1 plus whole token matches at ExactWordWeight.
func (c *Classifier) QueryScores(text string) map[Category]int {
	folded := fold(text)
	tokens := tokenize(folded)

	scores := make(map[Category]int, len(c.sets))
	for _, set := range c.sets {
		score := 0
		for _, kw := range set.Query {
			score += strings.Count(folded, kw)
			score += countPhrase(tokens, strings.Fields(kw)) * c.cfg.ExactWordWeight
		}

		score += c.cooccurrence(folded, set.Diagnostic)
		scores[set.Category] = score
	}

	return scores
}

func (c *Classifier) cooccurrence(folded string, diagnostic []string) int {
	found := 0
	for _, term := range diagnostic {
		if strings.Contains(folded, term) {
			found++
		}
	}
	if found >= c.cfg.MinCooccurrence {
		return c.cfg.CooccurrenceBonus
	}
	return 0
}

// pick returns the category with the strictly highest non-zero score. Ties
// go to the category listed first.
func (c *Classifier) pick(scores map[Category]int, sentinel Category) Category {
	best, bestScore := sentinel, 0
	for _, set := range c.sets {
		if s := scores[set.Category]; s > bestScore {
			best, bestScore = set.Category, s
		}
	}

	c.logger.Debug("classified text",
		zap.String("category", string(best)),
		zap.Int("score", bestScore),
	)

	return best
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// countPhrase counts whole token occurrences of phrase in tokens.
func countPhrase(tokens, phrase []string) int {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return 0
	}

	n := 0
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, p := range phrase {
			if tokens[i+j] != p {
				continue outer
			}
		}
		n++
	}
	return n
}

func foldAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = fold(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

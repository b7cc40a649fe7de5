// Package relevance combines similarity thresholding with category matching
// into a bounded, ranked candidate set.
package relevance

import (
	"slices"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/similarity"
)

const (
	// DefaultMinThresholdResults is the number of candidates kept by the
	// threshold stage when too few meet the threshold.
	DefaultMinThresholdResults = 3

	// DefaultMinCategoryMatches is the number of category matches needed
	// before the category stage narrows the set.
	DefaultMinCategoryMatches = 2
)

// DocumentClassifier classifies stored content.
type DocumentClassifier interface {
	ClassifyDocument(text string) category.Category
}

// Config holds the escape hatch sizes of a Filter.
type Config struct {
	MinThresholdResults int
	MinCategoryMatches  int
}

// Stats describes what each stage of a filter run did.
type Stats struct {
	Input            int  `json:"input"`
	AboveThreshold   int  `json:"above_threshold"`
	ThresholdEscaped bool `json:"threshold_escaped"`
	CategoryMatches  int  `json:"category_matches"`
	CategoryApplied  bool `json:"category_applied"`
	CategoryEscaped  bool `json:"category_escaped"`
	Output           int  `json:"output"`
}

// Filter runs the threshold, category and bound stages over normalized
// candidates. It is safe for concurrent use.
type Filter struct {
	cfg        Config
	classifier DocumentClassifier
	logger     *zap.Logger
}

// NewFilter creates a Filter. Zero valued fields of cfg take their defaults.
func NewFilter(cfg Config, classifier DocumentClassifier, logger *zap.Logger) *Filter {
	if cfg.MinThresholdResults <= 0 {
		cfg.MinThresholdResults = DefaultMinThresholdResults
	}
	if cfg.MinCategoryMatches <= 0 {
		cfg.MinCategoryMatches = DefaultMinCategoryMatches
	}

	return &Filter{
		cfg:        cfg,
		classifier: classifier,
		logger:     logger,
	}
}

// Apply returns at most maxResults candidates ordered by similarity,
// highest first. A non-empty input never produces an empty output unless
// maxResults is below one.
func (f *Filter) Apply(
	candidates []similarity.NormalizedCandidate,
	queryCategory category.Category,
	threshold float64,
	maxResults int,
) []similarity.NormalizedCandidate {
	out, _ := f.Explain(candidates, queryCategory, threshold, maxResults)
	return out
}

// Explain is Apply plus per-stage statistics.
func (f *Filter) Explain(
	candidates []similarity.NormalizedCandidate,
	queryCategory category.Category,
	threshold float64,
	maxResults int,
) ([]similarity.NormalizedCandidate, Stats) {
	stats := Stats{Input: len(candidates)}
	if len(candidates) == 0 || maxResults < 1 {
		return []similarity.NormalizedCandidate{}, stats
	}

	survivors := f.thresholdStage(candidates, threshold, &stats)
	survivors = f.categoryStage(survivors, queryCategory, &stats)

	out := slices.Clone(survivors)
	sortBySimilarity(out)
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	stats.Output = len(out)

	f.logger.Debug("filtered candidates",
		zap.Int("input", stats.Input),
		zap.Int("above_threshold", stats.AboveThreshold),
		zap.Bool("threshold_escaped", stats.ThresholdEscaped),
		zap.Int("category_matches", stats.CategoryMatches),
		zap.Bool("category_escaped", stats.CategoryEscaped),
		zap.Int("output", stats.Output),
	)

	return out, stats
}

// thresholdStage keeps candidates at or above threshold. When fewer than
// MinThresholdResults survive, the best MinThresholdResults are kept instead.
func (f *Filter) thresholdStage(
	candidates []similarity.NormalizedCandidate,
	threshold float64,
	stats *Stats,
) []similarity.NormalizedCandidate {
	passed := make([]similarity.NormalizedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity >= threshold {
			passed = append(passed, c)
		}
	}
	stats.AboveThreshold = len(passed)

	if len(passed) >= f.cfg.MinThresholdResults {
		return passed
	}

	stats.ThresholdEscaped = true
	top := slices.Clone(candidates)
	sortBySimilarity(top)
	if len(top) > f.cfg.MinThresholdResults {
		top = top[:f.cfg.MinThresholdResults]
	}

	f.logger.Debug("too few candidates above similarity threshold, keeping best candidates",
		zap.Float64("threshold", threshold),
		zap.Int("above_threshold", len(passed)),
		zap.Int("kept", len(top)),
	)

	return top
}

// categoryStage narrows survivors to those matching the query category when
// enough of them match. A sentinel query category skips the stage.
func (f *Filter) categoryStage(
	survivors []similarity.NormalizedCandidate,
	queryCategory category.Category,
	stats *Stats,
) []similarity.NormalizedCandidate {
	if queryCategory.IsSentinel() {
		return survivors
	}

	matching := make([]similarity.NormalizedCandidate, 0, len(survivors))
	for _, c := range survivors {
		if f.classifier.ClassifyDocument(documentText(c)) == queryCategory {
			matching = append(matching, c)
		}
	}
	stats.CategoryMatches = len(matching)

	if len(matching) >= f.cfg.MinCategoryMatches {
		stats.CategoryApplied = true
		return matching
	}

	stats.CategoryEscaped = true
	f.logger.Warn("category signal too weak, keeping unfiltered candidates",
		zap.String("query_category", string(queryCategory)),
		zap.Int("matches", len(matching)),
		zap.Int("required", f.cfg.MinCategoryMatches),
		zap.Int("candidates", len(survivors)),
	)

	return survivors
}

// documentText places the title on the first line so it counts as the
// document's opening.
func documentText(c similarity.NormalizedCandidate) string {
	if c.Chunk.Title == "" {
		return c.Chunk.Content
	}
	return c.Chunk.Title + "\n" + c.Chunk.Content
}

func sortBySimilarity(c []similarity.NormalizedCandidate) {
	slices.SortStableFunc(c, func(a, b similarity.NormalizedCandidate) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
}

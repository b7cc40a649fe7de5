package relevance_test

import (
	"fmt"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/relevance"
	"github.com/papercomputeco/ragline/pkg/similarity"
	"github.com/papercomputeco/ragline/pkg/vector"
)

func candidate(id, title, content string, sim float64) similarity.NormalizedCandidate {
	return similarity.NormalizedCandidate{
		ScoredCandidate: vector.ScoredCandidate{
			Chunk: vector.Chunk{
				DocumentID:  id,
				Title:       title,
				Content:     content,
				TotalChunks: 1,
			},
			Metric: vector.MetricL2,
		},
		Similarity: sim,
	}
}

func ids(c []similarity.NormalizedCandidate) []string {
	out := make([]string, len(c))
	for i := range c {
		out[i] = c[i].Chunk.DocumentID
	}
	return out
}

var _ = Describe("Filter", func() {
	var (
		filter *relevance.Filter
		logs   *observer.ObservedLogs
	)

	BeforeEach(func() {
		var core zapcore.Core
		core, logs = observer.New(zapcore.WarnLevel)
		classifier := category.NewClassifier(category.DefaultConfig(), zap.NewNop())
		filter = relevance.NewFilter(relevance.Config{}, classifier, zap.New(core))
	})

	It("returns empty output for empty input", func() {
		out := filter.Apply(nil, category.Person, 0.5, 5)
		Expect(out).NotTo(BeNil())
		Expect(out).To(BeEmpty())
	})

	It("keeps candidates above the threshold sorted by similarity", func() {
		in := []similarity.NormalizedCandidate{
			candidate("a", "", "alpha", 0.6),
			candidate("b", "", "beta", 0.9),
			candidate("c", "", "gamma", 0.2),
			candidate("d", "", "delta", 0.7),
		}
		out, stats := filter.Explain(in, category.General, 0.5, 10)
		Expect(ids(out)).To(Equal([]string{"b", "d", "a"}))
		Expect(stats.AboveThreshold).To(Equal(3))
		Expect(stats.ThresholdEscaped).To(BeFalse())
	})

	It("escapes to the best candidates when none meet the threshold", func() {
		in := []similarity.NormalizedCandidate{
			candidate("a", "", "alpha", 0.1),
			candidate("b", "", "beta", 0.3),
			candidate("c", "", "gamma", 0.2),
			candidate("d", "", "delta", 0.05),
		}
		out, stats := filter.Explain(in, category.General, 0.9, 10)
		Expect(ids(out)).To(Equal([]string{"b", "c", "a"}))
		Expect(stats.ThresholdEscaped).To(BeTrue())
	})

	It("escapes when fewer than the minimum survive", func() {
		in := []similarity.NormalizedCandidate{
			candidate("a", "", "alpha", 0.95),
			candidate("b", "", "beta", 0.3),
			candidate("c", "", "gamma", 0.2),
			candidate("d", "", "delta", 0.1),
		}
		out := filter.Apply(in, category.General, 0.9, 10)
		Expect(ids(out)).To(Equal([]string{"a", "b", "c"}))
	})

	It("returns all five candidates when none match the query category", func() {
		in := []similarity.NormalizedCandidate{
			candidate("s1", "Scandinavia Guide", "Denmark, Norway, Sweden", 0.91),
			candidate("s2", "Fjords", "Norwegian coastline and fjords", 0.88),
			candidate("s3", "Baltic Sea", "Shipping routes across the Baltic", 0.86),
			candidate("s4", "Sauna", "Finnish sauna traditions", 0.84),
			candidate("s5", "Midnight Sun", "Summer nights above the arctic circle", 0.82),
		}
		out, stats := filter.Explain(in, category.Person, 0.5, 5)
		Expect(out).To(HaveLen(5))
		Expect(stats.CategoryMatches).To(BeZero())
		Expect(stats.CategoryEscaped).To(BeTrue())
		Expect(logs.FilterMessage("category signal too weak, keeping unfiltered candidates").Len()).To(Equal(1))
	})

	It("narrows to matching documents when enough match", func() {
		in := []similarity.NormalizedCandidate{
			candidate("f1", "Inception", "A film by director Christopher Nolan", 0.9),
			candidate("p1", "Marie Curie", "Biography: birth in Warsaw, death in 1934", 0.85),
			candidate("f2", "Interstellar", "A movie with an IMDb rating of 8.7", 0.8),
			candidate("p2", "Ada Lovelace", "Biography of the first programmer, birth 1815", 0.75),
			candidate("x", "Fjords", "Norwegian coastline", 0.7),
		}
		out, stats := filter.Explain(in, category.Person, 0.5, 5)
		Expect(ids(out)).To(Equal([]string{"p1", "p2"}))
		Expect(stats.CategoryApplied).To(BeTrue())
		Expect(logs.Len()).To(BeZero())
	})

	It("keeps the threshold set when only one document matches", func() {
		in := []similarity.NormalizedCandidate{
			candidate("f1", "Inception", "A film by director Christopher Nolan", 0.9),
			candidate("x1", "Fjords", "Norwegian coastline", 0.8),
			candidate("x2", "Sauna", "Finnish traditions", 0.7),
		}
		out := filter.Apply(in, category.Film, 0.5, 5)
		Expect(ids(out)).To(Equal([]string{"f1", "x1", "x2"}))
	})

	It("skips the category stage for general queries", func() {
		in := []similarity.NormalizedCandidate{
			candidate("f1", "Inception", "film", 0.9),
			candidate("f2", "Tenet", "film", 0.8),
			candidate("x1", "Fjords", "coast", 0.7),
		}
		_, stats := filter.Explain(in, category.General, 0.5, 5)
		Expect(stats.CategoryApplied).To(BeFalse())
		Expect(stats.CategoryEscaped).To(BeFalse())
	})

	It("breaks similarity ties by original order", func() {
		in := []similarity.NormalizedCandidate{
			candidate("a", "", "x", 0.5),
			candidate("b", "", "x", 0.7),
			candidate("c", "", "x", 0.5),
			candidate("d", "", "x", 0.7),
		}
		Expect(ids(filter.Apply(in, category.General, 0.1, 10))).To(Equal([]string{"b", "d", "a", "c"}))
	})

	It("returns nothing when maxResults is below one", func() {
		in := []similarity.NormalizedCandidate{candidate("a", "", "x", 0.5)}
		Expect(filter.Apply(in, category.General, 0.1, 0)).To(BeEmpty())
	})

	Describe("properties over generated inputs", func() {
		var rng *rand.Rand

		BeforeEach(func() {
			rng = rand.New(rand.NewPCG(42, 7))
		})

		generate := func(n int) []similarity.NormalizedCandidate {
			titles := []string{"Inception", "Marie Curie", "The Hobbit", "Fjords", "Sauna"}
			contents := []string{"a film by a director", "biography, birth and death", "a novel by tolkien", "coast", "heat"}
			out := make([]similarity.NormalizedCandidate, n)
			for i := range out {
				j := rng.IntN(len(titles))
				out[i] = candidate(fmt.Sprintf("doc-%d", i), titles[j], contents[j], rng.Float64())
			}
			return out
		}

		It("never over-returns, never empties non-empty input and is deterministic", func() {
			cats := []category.Category{category.General, category.Film, category.Book, category.Person}
			for range 200 {
				in := generate(rng.IntN(12))
				cat := cats[rng.IntN(len(cats))]
				threshold := rng.Float64()
				maxResults := 1 + rng.IntN(6)

				first := filter.Apply(in, cat, threshold, maxResults)
				second := filter.Apply(in, cat, threshold, maxResults)

				Expect(len(first)).To(BeNumerically("<=", maxResults))
				if len(in) > 0 {
					Expect(first).NotTo(BeEmpty())
				}
				Expect(ids(second)).To(Equal(ids(first)))
				for i := 1; i < len(first); i++ {
					Expect(first[i].Similarity).To(BeNumerically("<=", first[i-1].Similarity))
				}
			}
		})
	})
})

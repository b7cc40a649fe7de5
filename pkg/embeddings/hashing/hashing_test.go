package hashing_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragline/pkg/embeddings"
	"github.com/papercomputeco/ragline/pkg/embeddings/hashing"
	"github.com/papercomputeco/ragline/pkg/vector"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

var _ = Describe("Embedder", func() {
	var (
		e   *hashing.Embedder
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		e, err = hashing.NewEmbedder(0)
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	It("implements embeddings.Embedder", func() {
		var _ embeddings.Embedder = (*hashing.Embedder)(nil)
	})

	It("defaults to 384 dimensions", func() {
		Expect(e.Dimensions()).To(Equal(uint(384)))
		Expect(e.Model()).To(Equal(hashing.ModelName))
	})

	It("rejects tiny dimensions", func() {
		_, err := hashing.NewEmbedder(4)
		Expect(err).To(HaveOccurred())
	})

	It("is deterministic", func() {
		a, err := e.EmbedOne(ctx, "Denmark, Norway, Sweden")
		Expect(err).NotTo(HaveOccurred())
		b, err := e.EmbedOne(ctx, "Denmark, Norway, Sweden")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))

		other, err := hashing.NewEmbedder(384)
		Expect(err).NotTo(HaveOccurred())
		c, err := other.EmbedOne(ctx, "Denmark, Norway, Sweden")
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(a))
	})

	It("produces unit length vectors of the configured size", func() {
		v, err := e.EmbedOne(ctx, "The Nordic countries have a cold climate")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(384))
		Expect(norm(v)).To(BeNumerically("~", 1, 1e-5))
	})

	It("returns a zero vector for text without words", func() {
		v, err := e.EmbedOne(ctx, "  ... ")
		Expect(err).NotTo(HaveOccurred())
		Expect(norm(v)).To(BeZero())
	})

	It("ignores case", func() {
		a, _ := e.EmbedOne(ctx, "NORWAY")
		b, _ := e.EmbedOne(ctx, "norway")
		Expect(a).To(Equal(b))
	})

	It("places texts sharing words closer than unrelated texts", func() {
		vecs, err := e.Embed(ctx, []string{
			"Nordic countries climate",
			"Scandinavia Guide: Denmark, Norway, Sweden. The Nordic countries share a cold climate.",
			"Inception is a film by director Christopher Nolan.",
		})
		Expect(err).NotTo(HaveOccurred())

		related := vector.L2Distance(vecs[0], vecs[1])
		unrelated := vector.L2Distance(vecs[0], vecs[2])
		Expect(related).To(BeNumerically("<", unrelated))
	})

	It("honors cancellation", func() {
		c, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Embed(c, []string{"x"})
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})

package inmemory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
	"github.com/papercomputeco/ragline/pkg/vector/inmemory"
)

func chunk(doc string, idx, total int, emb ...float32) vector.EmbeddedChunk {
	return vector.EmbeddedChunk{
		Chunk: vector.Chunk{
			DocumentID:  doc,
			Title:       doc,
			Content:     doc + " content",
			ChunkIndex:  idx,
			TotalChunks: total,
		},
		Embedding:      emb,
		EmbeddingModel: "test-model",
	}
}

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		driver, err = inmemory.NewDriver(inmemory.Config{
			Dimensions:     2,
			Metric:         vector.MetricL2,
			EmbeddingModel: "test-model",
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	It("should implement vector.Driver interface", func() {
		var _ vector.Driver = (*inmemory.Driver)(nil)
	})

	It("requires dimensions", func() {
		_, err := inmemory.NewDriver(inmemory.Config{}, zap.NewNop())
		Expect(err).To(HaveOccurred())
	})

	It("returns an empty result for an empty index", func() {
		results, err := driver.Search(ctx, []float32{1, 0}, 3, vector.MetricL2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	Context("with stored chunks", func() {
		BeforeEach(func() {
			n, err := driver.Upsert(ctx, []vector.EmbeddedChunk{
				chunk("near", 0, 1, 1, 0),
				chunk("mid", 0, 1, 0, 1),
				chunk("far", 0, 2, -3, 0),
				chunk("far", 1, 2, -4, 0),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
		})

		It("orders results ascending by L2 distance", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, 4, vector.MetricL2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			Expect(results[0].Chunk.DocumentID).To(Equal("near"))
			Expect(results[0].RawScore).To(BeNumerically("==", 0))
			Expect(results[1].Chunk.DocumentID).To(Equal("mid"))
			for i := 1; i < len(results); i++ {
				Expect(results[i].RawScore).To(BeNumerically(">=", results[i-1].RawScore))
			}
		})

		It("returns everything when k exceeds the index size", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, 100, vector.MetricL2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
		})

		It("truncates to k", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, 1, vector.MetricL2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("rejects a mismatched metric", func() {
			_, err := driver.Search(ctx, []float32{1, 0}, 1, vector.MetricCosine)
			var mm *vector.MetricMismatchError
			Expect(errors.As(err, &mm)).To(BeTrue())
		})

		It("replaces a document's chunks on re-upsert", func() {
			_, err := driver.Upsert(ctx, []vector.EmbeddedChunk{chunk("far", 0, 1, 5, 5)})
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Count()).To(Equal(3))
		})

		It("deletes all chunks of a document and reports the count", func() {
			n, err := driver.Delete(ctx, "far")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
			Expect(driver.Count()).To(Equal(2))

			n, err = driver.Delete(ctx, "far")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})
	})

	It("fails a 768 dimension upsert into a 384 dimension index without inserting", func() {
		d, err := inmemory.NewDriver(inmemory.Config{Dimensions: 384}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		good := chunk("doc", 0, 2, make([]float32, 384)...)
		bad := chunk("doc", 1, 2, make([]float32, 768)...)

		_, err = d.Upsert(ctx, []vector.EmbeddedChunk{good, bad})
		var dm *vector.DimensionMismatchError
		Expect(errors.As(err, &dm)).To(BeTrue())
		Expect(dm.Expected).To(Equal(uint(384)))
		Expect(dm.Got).To(Equal(uint(768)))
		Expect(d.Count()).To(BeZero())
	})

	It("surfaces an expired deadline as a timeout", func() {
		c, cancel := context.WithTimeout(ctx, 0)
		defer cancel()
		<-c.Done()

		_, err := driver.Search(c, []float32{1, 0}, 1, vector.MetricL2)
		Expect(errors.Is(err, vector.ErrTimeout)).To(BeTrue())
	})
})

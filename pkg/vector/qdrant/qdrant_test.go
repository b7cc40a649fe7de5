package qdrant_test

import (
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
	"github.com/papercomputeco/ragline/pkg/vector/qdrant"
)

// hostEnv points the integration specs at a disposable Qdrant instance.
const hostEnv = "RAGLINE_TEST_QDRANT_HOST"

var _ = Describe("Driver", func() {
	var (
		logger *zap.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		logger = zap.NewNop()
		ctx = context.Background()
	})

	Describe("NewDriver", func() {
		It("should require a host", func() {
			_, err := qdrant.NewDriver(ctx, qdrant.Config{Dimensions: 3}, logger)
			var cfgErr *vector.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("host"))
		})

		It("should require dimensions", func() {
			_, err := qdrant.NewDriver(ctx, qdrant.Config{Host: "localhost"}, logger)
			var cfgErr *vector.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("dimensions"))
		})

		It("should reject unknown metrics", func() {
			_, err := qdrant.NewDriver(ctx, qdrant.Config{Host: "localhost", Dimensions: 3, Metric: "manhattan"}, logger)
			var cfgErr *vector.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("metric"))
		})
	})

	Describe("against Qdrant", Ordered, func() {
		var driver *qdrant.Driver

		BeforeAll(func() {
			host := os.Getenv(hostEnv)
			if host == "" {
				Skip(hostEnv + " not set")
			}

			var err error
			driver, err = qdrant.NewDriver(ctx, qdrant.Config{
				Host:           host,
				CollectionName: "ragline_test_chunks",
				Dimensions:     3,
				Metric:         vector.MetricL2,
				EmbeddingModel: "test-model",
			}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterAll(func() {
			if driver != nil {
				_, _ = driver.Delete(ctx, "a")
				_, _ = driver.Delete(ctx, "b")
				Expect(driver.Close()).To(Succeed())
			}
		})

		It("should store chunks and return them nearest first", func() {
			n, err := driver.Upsert(ctx, []vector.EmbeddedChunk{
				{Chunk: vector.Chunk{DocumentID: "a", Content: "near", ChunkIndex: 0, TotalChunks: 1}, Embedding: []float32{1, 0, 0}, EmbeddingModel: "test-model"},
				{Chunk: vector.Chunk{DocumentID: "b", Content: "far", ChunkIndex: 0, TotalChunks: 1}, Embedding: []float32{0, 0, 5}, EmbeddingModel: "test-model"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			results, err := driver.Search(ctx, []float32{1, 0, 0}, 2, vector.MetricL2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Chunk.Content).To(Equal("near"))
			Expect(results[0].RawScore).To(BeNumerically("<", results[1].RawScore))
		})

		It("should count removed chunks", func() {
			n, err := driver.Delete(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})
	})
})

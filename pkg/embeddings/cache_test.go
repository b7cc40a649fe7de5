package embeddings_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/embeddings"
	testutils "github.com/papercomputeco/ragline/pkg/utils/test"
)

var _ = Describe("ModelCache", func() {
	var (
		loads  atomic.Int32
		cache  *embeddings.ModelCache
		ctx    context.Context
		loaded map[string]*testutils.MockEmbedder
		mu     sync.Mutex
	)

	BeforeEach(func() {
		loads.Store(0)
		ctx = context.Background()
		loaded = map[string]*testutils.MockEmbedder{}

		cache = embeddings.NewModelCache(func(_ context.Context, model string) (embeddings.Embedder, error) {
			loads.Add(1)
			time.Sleep(10 * time.Millisecond)
			if model == "missing" {
				return nil, errors.New("model not found")
			}
			e := testutils.NewMockEmbedder()
			e.ModelName = model
			mu.Lock()
			loaded[model] = e
			mu.Unlock()
			return e, nil
		}, zap.NewNop())
	})

	It("loads a model once and reuses it", func() {
		first, err := cache.GetOrLoad(ctx, "all-minilm")
		Expect(err).NotTo(HaveOccurred())
		second, err := cache.GetOrLoad(ctx, "all-minilm")
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(BeIdenticalTo(first))
		Expect(loads.Load()).To(Equal(int32(1)))
		Expect(cache.Loaded()).To(Equal([]string{"all-minilm"}))
	})

	It("collapses concurrent loads of the same model", func() {
		var wg sync.WaitGroup
		results := make([]embeddings.Embedder, 16)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				e, err := cache.GetOrLoad(ctx, "all-minilm")
				Expect(err).NotTo(HaveOccurred())
				results[i] = e
			}(i)
		}
		wg.Wait()

		Expect(loads.Load()).To(Equal(int32(1)))
		for _, r := range results {
			Expect(r).To(BeIdenticalTo(results[0]))
		}
	})

	It("keeps models of different names apart", func() {
		a, err := cache.GetOrLoad(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		b, err := cache.GetOrLoad(ctx, "b")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Model()).To(Equal("a"))
		Expect(b.Model()).To(Equal("b"))
		Expect(cache.Loaded()).To(Equal([]string{"a", "b"}))
	})

	It("returns a ModelLoadError naming the model", func() {
		_, err := cache.GetOrLoad(ctx, "missing")
		var loadErr *embeddings.ModelLoadError
		Expect(errors.As(err, &loadErr)).To(BeTrue())
		Expect(loadErr.Model).To(Equal("missing"))
		Expect(err.Error()).To(ContainSubstring("missing"))
		Expect(cache.Loaded()).To(BeEmpty())
	})

	It("rejects an empty model name", func() {
		_, err := cache.GetOrLoad(ctx, "")
		var loadErr *embeddings.ModelLoadError
		Expect(errors.As(err, &loadErr)).To(BeTrue())
	})

	It("closes and evicts models on Clear", func() {
		_, err := cache.GetOrLoad(ctx, "all-minilm")
		Expect(err).NotTo(HaveOccurred())

		Expect(cache.Clear()).To(Succeed())
		Expect(cache.Loaded()).To(BeEmpty())
		Expect(loaded["all-minilm"].Closed()).To(BeTrue())

		_, err = cache.GetOrLoad(ctx, "all-minilm")
		Expect(err).NotTo(HaveOccurred())
		Expect(loads.Load()).To(Equal(int32(2)))
	})

	It("keeps loading for other callers when the first caller cancels", func() {
		gate := make(chan struct{})
		var loadErr atomic.Value
		slow := embeddings.NewModelCache(func(ctx context.Context, model string) (embeddings.Embedder, error) {
			<-gate
			if err := ctx.Err(); err != nil {
				loadErr.Store(err)
				return nil, err
			}
			return testutils.NewMockEmbedder(), nil
		}, zap.NewNop())

		firstCtx, cancel := context.WithCancel(ctx)
		first := make(chan error, 1)
		go func() {
			_, err := slow.GetOrLoad(firstCtx, "all-minilm")
			first <- err
		}()

		second := make(chan error, 1)
		go func() {
			_, err := slow.GetOrLoad(ctx, "all-minilm")
			second <- err
		}()

		cancel()
		var err error
		Eventually(first).Should(Receive(&err))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())

		close(gate)
		Eventually(second).Should(Receive(BeNil()))
		Expect(loadErr.Load()).To(BeNil())
		Expect(slow.Loaded()).To(Equal([]string{"all-minilm"}))
	})
})

package ingest_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/ingest"
)

var _ = Describe("Pool", func() {
	var (
		dir     string
		indexer *fakeIndexer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		indexer = &fakeIndexer{}
	})

	write := func(rel, content string) string {
		p := filepath.Join(dir, rel)
		Expect(os.MkdirAll(filepath.Dir(p), 0o755)).To(Succeed())
		Expect(os.WriteFile(p, []byte(content), 0o644)).To(Succeed())
		return p
	}

	It("requires an indexer", func() {
		_, err := ingest.NewPool(&ingest.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("indexes every collected file and drains on Close", func() {
		write("a.md", "alpha")
		write("notes/b.txt", "beta")
		write("image.png", "binary")
		write(".git/c.md", "hidden")

		jobs, err := ingest.Collect(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs).To(HaveLen(2))

		pool, err := ingest.NewPool(&ingest.Config{Indexer: indexer, Logger: zap.NewNop()})
		Expect(err).NotTo(HaveOccurred())
		for _, j := range jobs {
			Expect(pool.Enqueue(j)).To(BeTrue())
		}
		pool.Close()

		Expect(indexer.Calls()).To(ConsistOf(
			call{op: "index", id: "a.md", title: "a.md", content: "alpha"},
			call{op: "index", id: "notes/b.txt", title: "b.txt", content: "beta"},
		))
		Expect(pool.Stats()).To(Equal(ingest.Stats{Indexed: 2, Chunks: 4}))
	})

	It("counts failures without stopping", func() {
		indexer.failOn = "bad.md"
		write("bad.md", "x")
		write("good.md", "y")

		pool, err := ingest.NewPool(&ingest.Config{Indexer: indexer, NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())
		pool.Enqueue(ingest.IndexJob(dir, filepath.Join(dir, "bad.md")))
		pool.Enqueue(ingest.IndexJob(dir, filepath.Join(dir, "missing.md")))
		pool.Enqueue(ingest.IndexJob(dir, filepath.Join(dir, "good.md")))
		pool.Enqueue(ingest.Job{Op: ingest.OpDelete, DocumentID: "old.md"})
		pool.Close()

		stats := pool.Stats()
		Expect(stats.Failed).To(Equal(int64(2)))
		Expect(stats.Indexed).To(Equal(int64(1)))
		Expect(stats.Deleted).To(Equal(int64(1)))
	})

	It("drops jobs when the queue is full", func() {
		indexer.gate = make(chan struct{})
		p := write("a.md", "alpha")

		pool, err := ingest.NewPool(&ingest.Config{Indexer: indexer, NumWorkers: 1, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())

		job := ingest.IndexJob(dir, p)
		Expect(pool.Enqueue(job)).To(BeTrue())
		// the worker holds the first job, the second fills the queue
		Eventually(func() bool { return pool.Enqueue(job) }).Should(BeTrue())
		Expect(pool.Enqueue(job)).To(BeFalse())

		close(indexer.gate)
		pool.Close()
		Expect(pool.Stats().Dropped).To(BeNumerically(">=", 1))
		Expect(pool.Stats().Indexed).To(Equal(int64(2)))
	})
})

var _ = Describe("Collect", func() {
	It("identifies a single file by its base name", func() {
		dir := GinkgoT().TempDir()
		p := filepath.Join(dir, "guide.md")
		Expect(os.WriteFile(p, []byte("x"), 0o644)).To(Succeed())

		jobs, err := ingest.Collect(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs).To(Equal([]ingest.Job{{Op: ingest.OpIndex, DocumentID: "guide.md", Title: "guide.md", Path: p}}))
	})

	It("fails on a missing path", func() {
		_, err := ingest.Collect(filepath.Join(GinkgoT().TempDir(), "nope"))
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("Indexable",
		func(path string, want bool) {
			Expect(ingest.Indexable(path)).To(Equal(want))
		},
		Entry("markdown", "a/b.md", true),
		Entry("upper case text", "README.TXT", true),
		Entry("go source", "main.go", false),
		Entry("no extension", "Makefile", false),
	)
})

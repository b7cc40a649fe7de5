package ingest_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/ingest"
)

var _ = Describe("Watch", func() {
	It("re-indexes written files and deletes removed ones", func() {
		dir := GinkgoT().TempDir()
		indexer := &fakeIndexer{}

		pool, err := ingest.NewPool(&ingest.Config{Indexer: indexer, NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- ingest.Watch(ctx, dir, pool, zap.NewNop()) }()
		DeferCleanup(func() {
			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})

		p := filepath.Join(dir, "live.md")
		// the watcher may not be registered yet, so keep writing until it reacts
		Eventually(func() []call {
			Expect(os.WriteFile(p, []byte("fresh"), 0o644)).To(Succeed())
			return indexer.Calls()
		}).Should(ContainElement(call{op: "index", id: "live.md", title: "live.md", content: "fresh"}))

		Expect(os.Remove(p)).To(Succeed())
		Eventually(indexer.Calls).Should(ContainElement(call{op: "delete", id: "live.md"}))
	})
})

package retrieval

import (
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("keyedMutex", func() {
	It("serializes holders of the same key", func() {
		k := newKeyedMutex()

		var (
			active  atomic.Int32
			maxSeen atomic.Int32
			wg      sync.WaitGroup
		)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock("doc")
				defer unlock()

				n := active.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
			}()
		}
		wg.Wait()

		Expect(maxSeen.Load()).To(Equal(int32(1)))
		Expect(k.size()).To(BeZero())
	})

	It("lets distinct keys proceed together", func() {
		k := newKeyedMutex()
		unlockA := k.Lock("a")
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlock := k.Lock("b")
			unlock()
			close(done)
		}()

		Eventually(done).Should(BeClosed())
	})
})

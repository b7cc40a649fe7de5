package ingest_test

import (
	"context"
	"errors"
	"sync"
)

type call struct {
	op      string
	id      string
	title   string
	content string
}

// fakeIndexer records calls. Index blocks on gate when it is set.
type fakeIndexer struct {
	mu     sync.Mutex
	calls  []call
	gate   chan struct{}
	failOn string
}

func (f *fakeIndexer) Index(ctx context.Context, id, title, content string) (int, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if id == f.failOn {
		return 0, errors.New("index failed")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "index", id: id, title: title, content: content})
	return 2, nil
}

func (f *fakeIndexer) Delete(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "delete", id: id})
	return 1, nil
}

func (f *fakeIndexer) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

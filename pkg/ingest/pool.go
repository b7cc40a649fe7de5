// Package ingest indexes files in the background through a worker pool and
// keeps a directory tree in sync with the index.
//
// The pool decouples reading and indexing from the caller so a directory walk
// or a file watcher never blocks on embedding.
package ingest

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Op is the action a Job performs.
type Op string

const (
	OpIndex  Op = "index"
	OpDelete Op = "delete"
)

// Indexer is the document store the pool writes to.
type Indexer interface {
	Index(ctx context.Context, documentID, title, content string) (int, error)
	Delete(ctx context.Context, documentID string) (int, error)
}

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Op Op

	// DocumentID identifies the document in the index.
	DocumentID string

	// Title is stored with every chunk of the document.
	Title string

	// Path is the file read for OpIndex jobs.
	Path string
}

// Stats counts processed jobs.
type Stats struct {
	Indexed int64 `json:"indexed"`
	Deleted int64 `json:"deleted"`
	Chunks  int64 `json:"chunks"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Indexer receives the file contents.
	Indexer Indexer

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes ingest jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	indexed atomic.Int64
	deleted atomic.Int64
	chunks  atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Indexer == nil {
		return nil, fmt.Errorf("ingest pool requires an indexer")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
		ctx:    ctx,
		cancel: cancel,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("op", string(job.Op)),
			zap.String("document_id", job.DocumentID),
		)
		return true
	default:
		p.dropped.Add(1)
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("op", string(job.Op)),
			zap.String("document_id", job.DocumentID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this once no more jobs will be enqueued.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.queue)
		p.wg.Wait()
		p.cancel()
	})
}

// Abort cancels in-flight jobs and then drains the queue like Close.
func (p *Pool) Abort() {
	p.cancel()
	p.Close()
}

// Stats returns a snapshot of the processed job counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Indexed: p.indexed.Load(),
		Deleted: p.deleted.Load(),
		Chunks:  p.chunks.Load(),
		Failed:  p.failed.Load(),
		Dropped: p.dropped.Load(),
	}
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingest worker stopped", zap.Uint("worker_id", id))
}

func (p *Pool) processJob(job Job) {
	if err := p.ctx.Err(); err != nil {
		p.failed.Add(1)
		return
	}

	switch job.Op {
	case OpDelete:
		n, err := p.config.Indexer.Delete(p.ctx, job.DocumentID)
		if err != nil {
			p.failed.Add(1)
			p.logger.Error("delete failed",
				zap.String("document_id", job.DocumentID),
				zap.Error(err),
			)
			return
		}
		p.deleted.Add(1)
		p.logger.Info("document removed",
			zap.String("document_id", job.DocumentID),
			zap.Int("chunks", n),
		)

	default:
		content, err := os.ReadFile(job.Path)
		if err != nil {
			p.failed.Add(1)
			p.logger.Error("reading file failed",
				zap.String("path", job.Path),
				zap.Error(err),
			)
			return
		}

		n, err := p.config.Indexer.Index(p.ctx, job.DocumentID, job.Title, string(content))
		if err != nil {
			p.failed.Add(1)
			p.logger.Error("index failed",
				zap.String("document_id", job.DocumentID),
				zap.Error(err),
			)
			return
		}
		p.indexed.Add(1)
		p.chunks.Add(int64(n))
	}
}

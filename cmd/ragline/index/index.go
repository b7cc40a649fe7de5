// Package indexcmder provides the index command that chunks, embeds and
// stores files, optionally watching them for changes.
package indexcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/ragline/cmd/ragline/stack"
	"github.com/papercomputeco/ragline/pkg/cliui"
	"github.com/papercomputeco/ragline/pkg/config"
	"github.com/papercomputeco/ragline/pkg/ingest"
)

type indexCommander struct {
	paths     []string
	watch     bool
	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *zap.Logger
}

const indexLongDesc string = `Index files into the configured vector store.

Every .txt and .md file found under the given paths is split into
overlapping chunks, embedded and stored. A document is identified by its
path relative to the indexed directory, so indexing a file again replaces
its previous chunks.

Use --watch to keep the index in sync: changed files are re-indexed and
removed files are deleted from the index until interrupted.

Examples:
  ragline index ./docs
  ragline index notes.md README.md
  ragline index ./docs --watch --workers 8`

const indexShortDesc string = "Index files into the vector store"

var indexFlags = append([]string{
	config.FlagIngestWorkers,
	config.FlagEventBrokers,
}, config.StoreFlags...)

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index <path>...",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(cmd, indexFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.paths = args
			cmder.out = cmd.OutOrStdout()

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddUintFlag(cmd, config.Registry, config.FlagIngestWorkers)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventBrokers)
	config.AddStoreFlags(cmd)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Watch the paths and keep the index in sync")

	return cmd
}

func (c *indexCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = stack.NewLogger(c.debug, c.cfg, os.Stderr)
	defer func() { _ = c.logger.Sync() }()

	var jobs []ingest.Job
	for _, p := range c.paths {
		found, err := ingest.Collect(p)
		if err != nil {
			return err
		}
		jobs = append(jobs, found...)
	}

	s, err := stack.Build(ctx, c.cfg, stack.Opts{
		ConfigDir: c.configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	// The initial batch must never be dropped, so the queue holds all of it.
	queueSize := max(c.cfg.Ingest.QueueSize, uint(len(jobs)))

	pool, err := ingest.NewPool(&ingest.Config{
		Indexer:    s.Indexer,
		NumWorkers: c.cfg.Ingest.Workers,
		QueueSize:  queueSize,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	err = cliui.Step(c.out, fmt.Sprintf("Indexing %d files", len(jobs)), func() error {
		for _, job := range jobs {
			pool.Enqueue(job)
		}
		if !c.watch {
			pool.Close()
		}
		return nil
	})
	if err != nil {
		pool.Abort()
		return err
	}

	if c.watch {
		if err := c.watchPaths(ctx, pool); err != nil {
			pool.Abort()
			return err
		}
		pool.Close()
	}

	stats := pool.Stats()
	fmt.Fprintf(c.out, "\n  %d indexed, %d chunks, %d deleted, %d failed\n",
		stats.Indexed, stats.Chunks, stats.Deleted, stats.Failed)

	if stats.Failed > 0 || stats.Dropped > 0 {
		return fmt.Errorf("%d of %d jobs did not complete", stats.Failed+stats.Dropped, len(jobs))
	}
	return nil
}

// watchPaths watches every directory argument until interrupted.
func (c *indexCommander) watchPaths(ctx context.Context, pool *ingest.Pool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range c.paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		root := p
		if !info.IsDir() {
			root = filepath.Dir(p)
		}

		g.Go(func() error {
			return ingest.Watch(ctx, root, pool, c.logger)
		})
	}

	return g.Wait()
}

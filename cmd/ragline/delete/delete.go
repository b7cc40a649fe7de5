// Package deletecmder provides the delete command that removes documents
// from the index.
package deletecmder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/cmd/ragline/stack"
	"github.com/papercomputeco/ragline/pkg/cliui"
	"github.com/papercomputeco/ragline/pkg/config"
)

type deleteCommander struct {
	ids       []string
	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *zap.Logger
}

const deleteLongDesc string = `Delete documents from the index.

Removes every chunk of each given document id. Document ids of indexed
files are their paths relative to the indexed directory.

Examples:
  ragline delete notes/todo.md
  ragline delete doc_1 doc_2`

const deleteShortDesc string = "Delete documents from the index"

var deleteFlags = append([]string{config.FlagEventBrokers}, config.StoreFlags...)

func NewDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:   "delete <document-id>...",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(cmd, deleteFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.ids = args
			cmder.out = cmd.OutOrStdout()

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagEventBrokers)
	config.AddStoreFlags(cmd)

	return cmd
}

func (c *deleteCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = stack.NewLogger(c.debug, c.cfg, os.Stderr)
	defer func() { _ = c.logger.Sync() }()

	s, err := stack.Build(ctx, c.cfg, stack.Opts{
		ConfigDir: c.configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	missing := 0
	for _, id := range c.ids {
		n, err := s.Indexer.Delete(ctx, id)
		if err != nil {
			fmt.Fprintf(c.out, "  %s %s\n", cliui.FailMark, id)
			return err
		}

		if n == 0 {
			missing++
			fmt.Fprintf(c.out, "  %s %s %s\n", cliui.FailMark, id, cliui.StepStyle.Render("(not found)"))
			continue
		}
		fmt.Fprintf(c.out, "  %s %s %s\n", cliui.SuccessMark, id, cliui.StepStyle.Render(fmt.Sprintf("(%d chunks)", n)))
	}

	if missing > 0 {
		return fmt.Errorf("%d of %d documents not found", missing, len(c.ids))
	}
	return nil
}

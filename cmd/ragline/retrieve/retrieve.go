// Package retrievecmder provides the retrieve command that prints the
// passages most relevant to a query.
package retrievecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/cmd/ragline/stack"
	"github.com/papercomputeco/ragline/pkg/cliui"
	"github.com/papercomputeco/ragline/pkg/config"
	"github.com/papercomputeco/ragline/pkg/retrieval"
)

type retrieveCommander struct {
	query     string
	jsonOut   bool
	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *zap.Logger
}

const retrieveLongDesc string = `Retrieve the indexed passages most relevant to a query.

The query is embedded, the nearest chunks are fetched from the vector store,
and the results are filtered by similarity threshold and by the query's
category (film, book or person) before being ranked best first.

Examples:
  ragline retrieve "who directed inception"
  ragline retrieve "tolkien novels" --top-k 20 --max-results 3
  ragline retrieve "marie curie" --threshold 0.5 --json`

const retrieveShortDesc string = "Retrieve relevant passages for a query"

var retrieveFlags = append(append([]string{}, config.StoreFlags...), config.RetrievalFlags...)

func NewRetrieveCmd() *cobra.Command {
	cmder := &retrieveCommander{}

	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: retrieveShortDesc,
		Long:  retrieveLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(cmd, retrieveFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.out = cmd.OutOrStdout()

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStoreFlags(cmd)
	config.AddRetrievalFlags(cmd)
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the result as JSON")

	return cmd
}

func (c *retrieveCommander) run(ctx context.Context) error {
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

	result, err := s.Retriever.Retrieve(ctx, c.query, s.Options)
	if err != nil {
		return err
	}

	return Print(c.out, result, c.jsonOut)
}

// Print writes result as indented JSON or as a ranked listing.
func Print(w io.Writer, result *retrieval.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	cliui.RenderResult(w, result)
	return nil
}

// Package askcmder provides the ask command that answers a question with a
// structured answer grounded in the retrieved passages.
package askcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/cmd/ragline/stack"
	"github.com/papercomputeco/ragline/pkg/cliui"
	"github.com/papercomputeco/ragline/pkg/config"
	"github.com/papercomputeco/ragline/pkg/generation"
)

type askCommander struct {
	query     string
	schema    string
	jsonOut   bool
	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *zap.Logger
}

const askLongDesc string = `Answer a question from the indexed documents.

The most relevant passages are retrieved and handed to the generation
model, which answers in a structured form chosen from the question's
category: FilmInfo, BookInfo, PersonInfo or GeneralInfo. When nothing
relevant is indexed the model is not called.

Examples:
  ragline ask "who directed inception"
  ragline ask "summarize the lord of the rings" --schema DocumentSummary
  ragline ask "who was marie curie" --model llama3.2 --json`

const askShortDesc string = "Answer a question from the indexed documents"

var askFlags = append(append([]string{config.FlagGenerationModel}, config.StoreFlags...), config.RetrievalFlags...)

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.schema != "" && !generation.Schema(cmder.schema).Valid() {
				return fmt.Errorf("unknown schema %q (available: %s)", cmder.schema, strings.Join(schemaNames(), ", "))
			}

			cfg, err := config.Resolve(cmd, askFlags...)
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

	config.AddStringFlag(cmd, config.Registry, config.FlagGenerationModel)
	config.AddStoreFlags(cmd)
	config.AddRetrievalFlags(cmd)
	cmd.Flags().StringVar(&cmder.schema, "schema", "", "Answer schema (default: chosen from the question category)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the answer as JSON")

	return cmd
}

func schemaNames() []string {
	return []string{
		string(generation.SchemaDocumentSummary),
		string(generation.SchemaFilmInfo),
		string(generation.SchemaBookInfo),
		string(generation.SchemaPersonInfo),
		string(generation.SchemaGeneralInfo),
	}
}

func (c *askCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = stack.NewLogger(c.debug, c.cfg, os.Stderr)
	defer func() { _ = c.logger.Sync() }()

	s, err := stack.Build(ctx, c.cfg, stack.Opts{
		ConfigDir:     c.configDir,
		WithGenerator: true,
		Logger:        c.logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	var answer *generation.Answer
	err = cliui.Step(os.Stderr, "Answering", func() error {
		var askErr error
		_, answer, askErr = generation.Ask(ctx, s.Retriever, s.Generator, c.query, generation.Schema(c.schema), s.Options)
		return askErr
	})
	if err != nil {
		return err
	}

	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	md, err := cliui.AnswerMarkdown(answer)
	if err != nil {
		return err
	}

	if cliui.IsTerminal(c.out) {
		// The plain markdown is still printed when rendering fails.
		md, _ = cliui.RenderMarkdown(md)
	}
	fmt.Fprint(c.out, md)

	return nil
}

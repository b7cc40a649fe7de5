// Package configcmder provides the config command for managing persistent
// ragline configuration stored in the .ragline/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragline/pkg/cliui"
	"github.com/papercomputeco/ragline/pkg/config"
)

const configLongDesc string = `Manage persistent ragline configuration.

Configuration is stored as config.toml in the .ragline/ directory and provides
default values for command flags. RAGLINE_ environment variables override the
file, and CLI flags take precedence over both.

Keys use dotted notation matching the TOML section structure, for example:
  vector_store.provider, vector_store.target, vector_store.metric,
  embedding.provider, embedding.model, embedding.dimensions,
  retrieval.k, retrieval.similarity_threshold, retrieval.max_results

Use subcommands to get, set, or list configuration values:
  ragline config set <key> <value>    Set a configuration value
  ragline config get <key>            Get a configuration value
  ragline config list                 List all configuration values

Examples:
  ragline config set vector_store.provider qdrant
  ragline config set retrieval.similarity_threshold 0.4
  ragline config get embedding.model
  ragline config list`

const configShortDesc string = "Manage persistent ragline configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

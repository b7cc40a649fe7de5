// Package raglinecmder
package raglinecmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/ragline/cmd/ragline/ask"
	configcmder "github.com/papercomputeco/ragline/cmd/ragline/config"
	deletecmder "github.com/papercomputeco/ragline/cmd/ragline/delete"
	indexcmder "github.com/papercomputeco/ragline/cmd/ragline/index"
	initcmder "github.com/papercomputeco/ragline/cmd/ragline/init"
	retrievecmder "github.com/papercomputeco/ragline/cmd/ragline/retrieve"
	servecmder "github.com/papercomputeco/ragline/cmd/ragline/serve"
	versioncmder "github.com/papercomputeco/ragline/cmd/version"
)

const raglineLongDesc string = `Ragline indexes documents into a vector store and retrieves the
passages most relevant to a question.

Index and query from the command line:
  ragline index ./docs           Chunk, embed and store every document
  ragline retrieve "question"    Show the ranked passages for a question
  ragline ask "question"         Answer a question from the retrieved passages

Or run the HTTP and MCP server:
  ragline serve`

const raglineShortDesc string = "Ragline - retrieval for grounded answers"

func NewRaglineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ragline",
		Short:        raglineShortDesc,
		Long:         raglineLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .ragline/ directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(retrievecmder.NewRetrieveCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(deletecmder.NewDeleteCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

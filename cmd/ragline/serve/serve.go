// Package servecmder provides the serve command running the HTTP API and
// MCP server over the configured index.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/api"
	"github.com/papercomputeco/ragline/cmd/ragline/stack"
	"github.com/papercomputeco/ragline/pkg/config"
)

type ServeCommander struct {
	cfg       *config.Config
	configDir string
	noMCP     bool
	debug     bool
	logger    *zap.Logger
}

const serveLongDesc string = `Run the ragline API server.

The server exposes:
  POST   /v1/documents        Index a document
  DELETE /v1/documents/:id    Remove a document
  GET    /v1/retrieve         Retrieve ranked passages for a query
  POST   /v1/ask              Answer a question from retrieved passages
  /mcp                        MCP endpoint with the retrieve tool

Settings come from config.toml, RAGLINE_ environment variables and flags,
in increasing order of precedence.

Examples:
  ragline serve
  ragline serve --listen :9000 --vector-store qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Run the ragline API server"

var serveFlags = append(append([]string{
	config.FlagAPIListen,
	config.FlagGenerationModel,
	config.FlagEventBrokers,
}, config.StoreFlags...), config.RetrievalFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(cmd, serveFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagAPIListen)
	config.AddStringFlag(cmd, config.Registry, config.FlagGenerationModel)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventBrokers)
	config.AddStoreFlags(cmd)
	config.AddRetrievalFlags(cmd)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = stack.NewLogger(c.debug, c.cfg, os.Stdout)
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

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Retriever:  s.Retriever,
		Indexer:    s.Indexer,
		Generator:  s.Generator,
		Options:    s.Options,
		DisableMCP: c.noMCP,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

// Package initcmder provides the init command for initializing a local
// .ragline directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragline/pkg/cliui"
	"github.com/papercomputeco/ragline/pkg/config"
	"github.com/papercomputeco/ragline/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .ragline/ directory in the current working directory.

Creates a local .ragline/ directory that takes precedence over the default
~/.ragline/ directory for configuration and the local sqlite index. This keeps
a separate index per project or directory.

Use --preset to also write a config.toml for a common setup:
  local     sqlite index with the built-in hashing embedder
  ollama    sqlite index with Ollama embeddings
  postgres  pgvector index with Ollama embeddings

Examples:
  ragline init
  ragline init --preset ollama`

const initShortDesc string = "Initialize a local .ragline/ directory"

type initCommander struct {
	preset string
	force  bool
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Write a config.toml for a preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func (c *initCommander) run(w io.Writer) error {
	var cfg *config.Config
	if c.preset != "" {
		var err error
		cfg, err = config.PresetConfig(c.preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .ragline directory: %w", err)
		}
		fmt.Fprintf(w, "Initialized .ragline directory: %s\n", dir)
	}

	if cfg == nil {
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !c.force {
		if _, err := os.Stat(cfger.GetTarget()); err == nil {
			return fmt.Errorf("config already exists at %s, use --force to overwrite", cfger.GetTarget())
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Wrote %s preset to %s\n", cliui.SuccessMark, c.preset, cfger.GetTarget())
	return nil
}

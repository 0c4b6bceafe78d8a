// Package cmd implements the CLI commands for deepwiki-md using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/philipz/deepwiki-md-chrome-extension/core/config"
	"github.com/philipz/deepwiki-md-chrome-extension/core/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig string
	flagDebug  bool

	// Loaded before any subcommand runs.
	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "deepwiki-md",
	Short: "deepwiki-md converts DeepWiki pages into Markdown",
	Long: `deepwiki-md converts DeepWiki documentation pages into Markdown, rebuilding
rendered Mermaid diagrams (flowchart, class, sequence and state) as source.

Usage:
  deepwiki-md convert <url|file> [flags]
  deepwiki-md diagram <url|file>`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log diagram reconstruction details")
}

// setup loads the configuration and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		loaded.Debug = flagDebug
	}

	l, err := logging.New(loaded.Debug)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package main provides the batch-planner CLI application.
package main

import (
	"os"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/observability"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "batch-planner",
	Short: "DocGen AI Toolkit Batch Planner",
	Long: `DocGen AI Toolkit Batch Planner - partitions a source tree into
LLM-sized work batches.

Small files are grouped by relationship, medium files get a dedicated
batch each, and large files are split into chunks along structural
boundaries. The resulting plan feeds downstream documentation and
analysis pipelines.`,
	Version:       version.FullString(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// rootFlags holds the persistent flags shared by all commands
type rootFlags struct {
	config  string
	verbose bool
}

var rootOpts rootFlags

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.config, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.verbose, "verbose", "v", false, "Verbose output")
}

// loadConfig resolves configuration from the --config flag, the
// environment, or the default search path.
func loadConfig() (*config.Config, error) {
	return config.LoadWithOverrides(rootOpts.config)
}

// buildLogger creates the CLI logger. --verbose forces debug level.
func buildLogger(cfg *config.Config) observability.Logger {
	level := cfg.Global.LogLevel
	if rootOpts.verbose {
		level = "debug"
	}
	return observability.NewLoggerWithOptions(level, cfg.Global.LogFormat, os.Stderr)
}

// Package main provides the batch-planner CLI application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/observability"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/spf13/cobra"
)

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate [path]",
	Short: "Show per-file token estimates without planning",
	Long: `Scan a source tree and print each file's estimated token count
and the size class it would be routed to. No batches are formed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)
	metrics := observability.NewMetricsCollector(observability.MetricConfig{Enabled: true})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	est := buildEstimator(cfg, metrics, logger)
	scanner := source.NewScanner(cfg.Scanner, est, logger, cfg.Global.Concurrency)
	files, err := scanner.Scan(ctx, root)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PATH\tTOKENS\tCLASS\tLANGUAGE")
	fmt.Fprintln(w, "----\t------\t-----\t--------")

	total := 0
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", f.Path, f.Tokens(), sizeClass(f, cfg.Planner), f.Language)
		total += f.Tokens()
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d files, %d estimated tokens\n", len(files), total)
	return nil
}

// sizeClass names the routing bucket a file would land in.
func sizeClass(f source.FileRef, cfg config.PlannerConfig) string {
	if !f.Estimate.Usable() {
		return "unusable"
	}
	switch t := f.Tokens(); {
	case t < cfg.SmallFileMaxTokens:
		return "small"
	case t < cfg.MediumFileMaxTokens:
		return "medium"
	default:
		return "large"
	}
}

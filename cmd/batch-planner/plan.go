// Package main provides the batch-planner CLI application.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/cache"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/observability"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/output"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/planner"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan [path]",
	Short: "Partition a source tree into LLM-sized batches",
	Long: `Scan a source tree, estimate tokens per file and partition the
files into batches.

Files are routed by estimated size: small files are grouped with
related neighbors, medium files get one batch each, and large files
are split into chunks along structural boundaries. The plan is
printed as a styled summary by default; use --format for a
machine-readable document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

// planFlags holds the flags for the plan command
type planFlags struct {
	format      string
	outputPath  string
	concurrency int
	tasks       bool
	dryRun      bool
}

var planOpts planFlags

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planOpts.format, "format", "f", "text", "Output format: text, markdown, yaml, json")
	planCmd.Flags().StringVarP(&planOpts.outputPath, "output", "o", "", "Write the rendered plan to a file instead of stdout")
	planCmd.Flags().IntVar(&planOpts.concurrency, "concurrency", 0, "Parallel file reads (defaults to the configured value)")
	planCmd.Flags().BoolVar(&planOpts.tasks, "tasks", false, "Emit pending tasks instead of raw batches (yaml or json only)")
	planCmd.Flags().BoolVar(&planOpts.dryRun, "dry-run", false, "Print the summary and skip writing any output file")
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	concurrency := cfg.Global.Concurrency
	if planOpts.concurrency > 0 {
		concurrency = planOpts.concurrency
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	est := buildEstimator(cfg, metrics, logger)

	scanner := source.NewScanner(cfg.Scanner, est, logger, concurrency)
	files, err := scanner.Scan(ctx, root)
	if err != nil {
		return err
	}

	p := planner.New(cfg.Planner, planner.Options{
		Logger:      logger,
		Metrics:     metrics,
		Estimator:   est,
		Concurrency: concurrency,
	})
	defer p.Close()

	plan, err := p.Plan(ctx, files)
	if err != nil {
		return err
	}

	if planOpts.dryRun {
		return output.NewReporter(os.Stdout).Report(plan)
	}

	rendered, err := renderPlan(plan)
	if err != nil {
		return err
	}

	if planOpts.outputPath == "" {
		fmt.Print(rendered)
		return nil
	}
	if err := os.WriteFile(planOpts.outputPath, []byte(rendered), 0644); err != nil {
		return errors.ValidationError(fmt.Sprintf("failed to write plan to %s", planOpts.outputPath), err)
	}
	logger.Info("plan written",
		observability.String("path", planOpts.outputPath),
		observability.Int("batches", len(plan.Batches)))
	return nil
}

// renderPlan turns the plan into the requested textual form.
func renderPlan(plan *planner.Plan) (string, error) {
	if planOpts.tasks {
		return renderTasks(plan)
	}
	if strings.EqualFold(planOpts.format, "text") {
		var buf bytes.Buffer
		if err := output.NewReporter(&buf).Report(plan); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	formatter, err := output.ForName(planOpts.format)
	if err != nil {
		return "", err
	}
	return formatter.Format(plan)
}

// renderTasks marshals the pending task list for an executor.
func renderTasks(plan *planner.Plan) (string, error) {
	tasks := plan.Tasks()
	switch strings.ToLower(planOpts.format) {
	case "yaml", "yml":
		data, err := yaml.Marshal(tasks)
		if err != nil {
			return "", errors.ValidationError("failed to marshal tasks to yaml", err)
		}
		return string(data), nil
	case "json":
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return "", errors.ValidationError("failed to marshal tasks to json", err)
		}
		return string(data) + "\n", nil
	default:
		return "", errors.ConfigError("tasks output requires yaml or json format", nil)
	}
}

// buildEstimator wraps the heuristic estimator with the configured
// cache backend. Cache problems degrade to the bare estimator.
func buildEstimator(cfg *config.Config, metrics *observability.MetricsCollector, logger observability.Logger) token.Estimator {
	base := token.NewHeuristicEstimator()
	if !cfg.Global.EnableCache {
		return base
	}
	backend := cache.NewDiskCache(cfg.Global.CacheDir)
	logger.Debug("estimate cache enabled", observability.String("dir", cfg.Global.CacheDir))
	return token.NewCachingEstimator(base, backend, metrics)
}

// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package planner routes token-annotated files to batching strategies
// and assembles their output into a single validated plan.
//
// Routing is by estimated token count against the configured
// thresholds: files below the small threshold are grouped into
// combined batches, files in the medium band get a dedicated batch
// each, and files at or above the medium threshold are split into
// chunks. Every input file ends up in exactly one batch family or in
// the rejection list.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/boundary"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/observability"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/perf"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/strategy"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
	"github.com/google/uuid"
)

// StageEstimate marks rejections raised before any strategy ran,
// when a file's token estimate is unusable.
const StageEstimate = "estimate"

// Stats summarizes one planning run.
type Stats struct {
	TotalFiles    int `json:"total_files" yaml:"total_files"`
	PlannedFiles  int `json:"planned_files" yaml:"planned_files"`
	RejectedFiles int `json:"rejected_files" yaml:"rejected_files"`

	SmallFiles  int `json:"small_files" yaml:"small_files"`
	MediumFiles int `json:"medium_files" yaml:"medium_files"`
	LargeFiles  int `json:"large_files" yaml:"large_files"`

	TotalTokens int `json:"total_tokens" yaml:"total_tokens"`

	CombinedBatches int `json:"combined_batches" yaml:"combined_batches"`
	SingleBatches   int `json:"single_batches" yaml:"single_batches"`
	ChunkBatches    int `json:"chunk_batches" yaml:"chunk_batches"`
}

// Plan is the complete output of one planning run.
type Plan struct {
	RunID     string               `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time            `json:"created_at" yaml:"created_at"`
	Batches   []batch.Batch        `json:"batches" yaml:"batches"`
	Rejected  []strategy.Rejection `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Stats     Stats                `json:"stats" yaml:"stats"`
}

// Tasks wraps every batch in a pending task, preserving plan order.
func (p *Plan) Tasks() []*batch.Task {
	tasks := make([]*batch.Task, 0, len(p.Batches))
	for _, b := range p.Batches {
		tasks = append(tasks, batch.NewTask(b))
	}
	return tasks
}

// Options configures optional planner collaborators. Zero values get
// working defaults: a nop logger, a disabled metrics collector, an OS
// content reader and the heuristic estimator.
type Options struct {
	Logger      observability.Logger
	Metrics     *observability.MetricsCollector
	Reader      source.ContentReader
	Estimator   token.Estimator
	Concurrency int
}

// Planner owns the three batching strategies and the observability
// around them. Strategies themselves stay side-effect free; all
// logging and metrics happen here.
type Planner struct {
	cfg     config.PlannerConfig
	logger  observability.Logger
	metrics *observability.MetricsCollector
	limiter *perf.RateLimiter

	combined *strategy.CombinedStrategy
	single   *strategy.SingleStrategy
	split    *strategy.SplitStrategy
}

// New creates a planner for the given thresholds.
func New(cfg config.PlannerConfig, opts Options) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsCollector(observability.MetricConfig{})
	}
	reader := opts.Reader
	if reader == nil {
		reader = source.OSReader{}
	}
	est := opts.Estimator
	if est == nil {
		est = token.NewHeuristicEstimator()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	limiter := perf.NewRateLimiter(concurrency)
	limited := &limitedReader{inner: reader, limiter: limiter}

	return &Planner{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		limiter:  limiter,
		combined: strategy.NewCombinedStrategy(cfg, strategy.DefaultRelationshipWeights()),
		single:   strategy.NewSingleStrategy(cfg, concurrency),
		split: strategy.NewSplitStrategy(cfg, boundary.NewStructuralDetector(est),
			limited, est, strategy.DefaultQualityWeights(), concurrency),
	}
}

// Close releases the planner's read limiter after in-flight reads
// finish. The planner must not be used afterwards.
func (p *Planner) Close() error {
	return p.limiter.Close()
}

// Plan partitions files into batches. The input order is canonical:
// each file's OriginalIndex is reassigned from its position, so two
// calls with the same files in the same order produce identical plans
// apart from RunID and CreatedAt.
func (p *Planner) Plan(ctx context.Context, files []source.FileRef) (*Plan, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid planner thresholds", err)
	}
	started := time.Now()

	ordered := make([]source.FileRef, len(files))
	copy(ordered, files)
	for i := range ordered {
		ordered[i].OriginalIndex = i
	}

	stats := Stats{TotalFiles: len(ordered)}
	var small, medium, large []source.FileRef
	var rejected []strategy.Rejection

	for _, f := range ordered {
		if !f.Estimate.Usable() {
			rejected = append(rejected, strategy.Rejection{
				Path:   f.Path,
				Stage:  StageEstimate,
				Reason: estimateReason(f),
			})
			continue
		}
		t := f.Tokens()
		stats.TotalTokens += t
		switch {
		case t < p.cfg.SmallFileMaxTokens:
			small = append(small, f)
		case t < p.cfg.MediumFileMaxTokens:
			medium = append(medium, f)
		default:
			large = append(large, f)
		}
	}
	stats.SmallFiles = len(small)
	stats.MediumFiles = len(medium)
	stats.LargeFiles = len(large)

	runs := []struct {
		name  string
		strat strategy.Strategy
		files []source.FileRef
	}{
		{strategy.TagCombined, p.combined, small},
		{strategy.TagSingle, p.single, medium},
		{strategy.TagSplit, p.split, large},
	}

	var batches []batch.Batch
	for _, run := range runs {
		if len(run.files) == 0 {
			continue
		}
		begun := time.Now()
		got, rejs, err := run.strat.Plan(ctx, run.files)
		if err != nil {
			return nil, err
		}
		p.metrics.RecordStrategyRun(run.name, time.Since(begun), len(got))
		p.logger.Debug("strategy finished",
			observability.String("strategy", run.name),
			observability.Int("files", len(run.files)),
			observability.Int("batches", len(got)),
			observability.Int("rejections", len(rejs)))
		batches = append(batches, got...)
		rejected = append(rejected, rejs...)
	}

	for i := range batches {
		batches[i].Metadata.ProcessingOrder = i + 1
		if err := batches[i].Validate(); err != nil {
			return nil, errors.ValidationError(
				fmt.Sprintf("planned batch %s failed validation", batches[i].ID), err)
		}
	}

	if err := checkCoverage(ordered, batches, rejected); err != nil {
		return nil, err
	}

	for _, r := range rejected {
		p.metrics.RecordRejection(r.Stage)
		p.logger.Warn("file excluded from plan",
			observability.String("path", r.Path),
			observability.String("stage", r.Stage),
			observability.String("reason", r.Reason))
	}
	p.recordFallbacks(batches)

	stats.RejectedFiles = len(rejected)
	stats.PlannedFiles = stats.TotalFiles - stats.RejectedFiles
	for _, b := range batches {
		switch b.Kind {
		case batch.Combined:
			stats.CombinedBatches++
		case batch.Single:
			stats.SingleBatches++
		case batch.Chunk:
			stats.ChunkBatches++
		}
	}

	p.metrics.Timing("plan_run", time.Since(started), nil)
	p.metrics.Gauge("plan_batches", float64(len(batches)), nil)
	p.logger.Info("plan complete",
		observability.Int("files", stats.TotalFiles),
		observability.Int("batches", len(batches)),
		observability.Int("rejected", stats.RejectedFiles),
		observability.Int("total_tokens", stats.TotalTokens))

	return &Plan{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Batches:   batches,
		Rejected:  rejected,
		Stats:     stats,
	}, nil
}

// recordFallbacks counts degraded splits, once per source file.
func (p *Planner) recordFallbacks(batches []batch.Batch) {
	seen := make(map[string]bool)
	for _, b := range batches {
		if b.Kind != batch.Chunk || !b.Metadata.IsFallback || b.ParentFile == nil {
			continue
		}
		if seen[b.ParentFile.Path] {
			continue
		}
		seen[b.ParentFile.Path] = true
		p.metrics.RecordFallback(b.Metadata.Hints["fallback_cause"])
	}
}

// checkCoverage verifies every input file landed in exactly one batch
// family or in the rejection list. Chunk batches count their parent
// file once regardless of chunk count.
func checkCoverage(files []source.FileRef, batches []batch.Batch, rejected []strategy.Rejection) error {
	want := make(map[string]int, len(files))
	for _, f := range files {
		want[f.Path]++
	}

	got := make(map[string]int, len(files))
	chunkParents := make(map[string]bool)
	for _, b := range batches {
		if b.Kind == batch.Chunk {
			if b.ParentFile != nil && !chunkParents[b.ParentFile.Path] {
				chunkParents[b.ParentFile.Path] = true
				got[b.ParentFile.Path]++
			}
			continue
		}
		for _, m := range b.Members {
			got[m.Path]++
		}
	}
	for _, r := range rejected {
		got[r.Path]++
	}

	for path, n := range want {
		switch {
		case got[path] == 0:
			return errors.SizeMismatchError(
				fmt.Sprintf("file %s fit no batch family and was not rejected", path), nil)
		case got[path] != n:
			return errors.ValidationError(
				fmt.Sprintf("file %s placed %d times, expected %d", path, got[path], n), nil)
		}
	}
	for path := range got {
		if want[path] == 0 {
			return errors.ValidationError(
				fmt.Sprintf("plan contains unknown file %s", path), nil)
		}
	}
	return nil
}

func estimateReason(f source.FileRef) string {
	if f.Estimate.Metadata != nil && f.Estimate.Metadata.Error != "" {
		return "unusable token estimate: " + f.Estimate.Metadata.Error
	}
	return "unusable token estimate"
}

// limitedReader bounds concurrent content reads across a run.
type limitedReader struct {
	inner   source.ContentReader
	limiter *perf.RateLimiter
}

func (l *limitedReader) Read(ctx context.Context, path string) (string, error) {
	var content string
	err := l.limiter.Do(ctx, func() error {
		var innerErr error
		content, innerErr = l.inner.Read(ctx, path)
		return innerErr
	})
	return content, err
}

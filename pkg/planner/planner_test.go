// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package planner_test

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/observability"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/planner"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

type mapReader map[string]string

func (m mapReader) Read(_ context.Context, path string) (string, error) {
	content, ok := m[path]
	if !ok {
		return "", errors.ReadError(fmt.Sprintf("failed to read file: %s", path), nil)
	}
	return content, nil
}

func mkRef(path string, tokens, index int) source.FileRef {
	return source.FileRef{
		Path:          path,
		Estimate:      token.FromCount(tokens),
		SizeBytes:     int64(tokens * 4),
		Language:      token.LanguageForPath(path),
		OriginalIndex: index,
	}
}

func genSource(funcs, bodyLines int) string {
	var b strings.Builder
	b.WriteString("package ledger\n\n")
	for i := 0; i < funcs; i++ {
		fmt.Fprintf(&b, "func Entry%03d() {\n", i)
		for j := 0; j < bodyLines; j++ {
			fmt.Fprintf(&b, "\tpost(%03d, %03d)\n", i, j)
		}
		b.WriteString("}\n\n")
	}
	return b.String()
}

func defaultPlanner() config.PlannerConfig {
	return config.Default().Planner
}

func TestPlanRoutesByThreshold(t *testing.T) {
	est := token.NewHeuristicEstimator()
	bigContent := genSource(120, 45)
	bigTokens := est.Estimate("big/ledger.go", bigContent).TotalTokens
	if bigTokens < 20000 {
		t.Fatalf("Generated file must clear the split threshold, got %d", bigTokens)
	}

	metrics := observability.NewMetricsCollector(observability.MetricConfig{Enabled: true})
	p := planner.New(defaultPlanner(), planner.Options{
		Metrics: metrics,
		Reader:  mapReader{"big/ledger.go": bigContent},
	})
	defer p.Close()

	files := []source.FileRef{
		mkRef("pkg/api/auth.go", 3000, 0),
		mkRef("pkg/api/billing.go", 4000, 0),
		mkRef("pkg/api/users.go", 5000, 0),
		mkRef("pkg/service/core.go", 17000, 0),
		mkRef("big/ledger.go", bigTokens, 0),
	}

	plan, err := p.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if plan.RunID == "" {
		t.Error("Expected a run id")
	}
	if plan.CreatedAt.IsZero() {
		t.Error("Expected a creation timestamp")
	}
	if len(plan.Batches) != 4 {
		t.Fatalf("Expected 4 batches, got %d", len(plan.Batches))
	}

	wantKinds := []batch.Kind{batch.Combined, batch.Single, batch.Chunk, batch.Chunk}
	for i, b := range plan.Batches {
		if b.Kind != wantKinds[i] {
			t.Errorf("Expected batch %d kind %s, got %s", i, wantKinds[i], b.Kind)
		}
		if b.Metadata.ProcessingOrder != i+1 {
			t.Errorf("Expected processing order %d, got %d", i+1, b.Metadata.ProcessingOrder)
		}
		if err := b.Validate(); err != nil {
			t.Errorf("Batch %s invalid: %v", b.ID, err)
		}
	}

	s := plan.Stats
	if s.TotalFiles != 5 || s.PlannedFiles != 5 || s.RejectedFiles != 0 {
		t.Errorf("Unexpected file accounting: %+v", s)
	}
	if s.SmallFiles != 3 || s.MediumFiles != 1 || s.LargeFiles != 1 {
		t.Errorf("Unexpected size routing: %+v", s)
	}
	if s.CombinedBatches != 1 || s.SingleBatches != 1 || s.ChunkBatches != 2 {
		t.Errorf("Unexpected batch counts: %+v", s)
	}
	wantTokens := 3000 + 4000 + 5000 + 17000 + bigTokens
	if s.TotalTokens != wantTokens {
		t.Errorf("Expected %d total tokens, got %d", wantTokens, s.TotalTokens)
	}

	if got := metrics.CounterGet("batches_created", 0); got != 4 {
		t.Errorf("Expected 4 recorded batches, got %v", got)
	}
	if got := metrics.CounterGet("files_rejected", 0); got != 0 {
		t.Errorf("Expected no recorded rejections, got %v", got)
	}
}

func TestPlanCoverageWithRejections(t *testing.T) {
	metrics := observability.NewMetricsCollector(observability.MetricConfig{Enabled: true})
	p := planner.New(defaultPlanner(), planner.Options{Metrics: metrics, Reader: mapReader{}})
	defer p.Close()

	unusable := source.FileRef{
		Path:     "vendor/blob.min.js",
		Estimate: token.Unusable("vendor/blob.min.js", "minified content"),
	}
	files := []source.FileRef{
		mkRef("pkg/api/auth.go", 3000, 0),
		unusable,
		mkRef("pkg/api/users.go", 5000, 0),
	}

	plan, err := p.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(plan.Rejected) != 1 {
		t.Fatalf("Expected 1 rejection, got %d", len(plan.Rejected))
	}
	rej := plan.Rejected[0]
	if rej.Path != "vendor/blob.min.js" || rej.Stage != planner.StageEstimate {
		t.Errorf("Unexpected rejection: %+v", rej)
	}
	if !strings.Contains(rej.Reason, "minified content") {
		t.Errorf("Expected estimator reason, got %s", rej.Reason)
	}

	// Every input path lands exactly once across batches and rejections.
	placed := map[string]int{rej.Path: 1}
	for _, b := range plan.Batches {
		for _, m := range b.Members {
			placed[m.Path]++
		}
	}
	for _, f := range files {
		if placed[f.Path] != 1 {
			t.Errorf("Expected %s placed once, got %d", f.Path, placed[f.Path])
		}
	}

	if plan.Stats.RejectedFiles != 1 || plan.Stats.PlannedFiles != 2 {
		t.Errorf("Unexpected accounting: %+v", plan.Stats)
	}
	if got := metrics.CounterGet("files_rejected", 0); got != 1 {
		t.Errorf("Expected 1 recorded rejection, got %v", got)
	}
}

func TestPlanDeterminism(t *testing.T) {
	est := token.NewHeuristicEstimator()
	bigContent := genSource(120, 45)
	bigTokens := est.Estimate("big/ledger.go", bigContent).TotalTokens

	files := []source.FileRef{
		mkRef("pkg/api/auth.go", 3000, 0),
		mkRef("pkg/api/billing.go", 4000, 0),
		mkRef("pkg/service/core.go", 17000, 0),
		mkRef("big/ledger.go", bigTokens, 0),
		mkRef("cmd/tool/main.go", 2000, 0),
	}

	run := func() *planner.Plan {
		p := planner.New(defaultPlanner(), planner.Options{
			Reader: mapReader{"big/ledger.go": bigContent},
		})
		defer p.Close()
		plan, err := p.Plan(context.Background(), files)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return plan
	}

	first := run()
	second := run()

	if !reflect.DeepEqual(first.Batches, second.Batches) {
		t.Error("Expected identical batches across runs")
	}
	if !reflect.DeepEqual(first.Rejected, second.Rejected) {
		t.Error("Expected identical rejections across runs")
	}
	if first.Stats != second.Stats {
		t.Errorf("Expected identical stats, got %+v vs %+v", first.Stats, second.Stats)
	}
	if first.RunID == second.RunID {
		t.Error("Expected distinct run ids")
	}
}

func TestPlanReassignsOriginalIndex(t *testing.T) {
	p := planner.New(defaultPlanner(), planner.Options{Reader: mapReader{}})
	defer p.Close()

	// Stale indices from a previous run must not leak into ordering.
	files := []source.FileRef{
		mkRef("pkg/web/render.go", 4000, 99),
		mkRef("pkg/web/assets.go", 3000, 98),
	}

	plan, err := p.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(plan.Batches) != 1 {
		t.Fatalf("Expected 1 combined batch, got %d", len(plan.Batches))
	}

	want := []string{"pkg/web/render.go", "pkg/web/assets.go"}
	if got := plan.Batches[0].MemberPaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected input-order members %v, got %v", want, got)
	}
}

func TestPlanEmptyInput(t *testing.T) {
	p := planner.New(defaultPlanner(), planner.Options{})
	defer p.Close()

	plan, err := p.Plan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(plan.Batches) != 0 || len(plan.Rejected) != 0 {
		t.Errorf("Expected empty plan, got %d batches, %d rejections",
			len(plan.Batches), len(plan.Rejected))
	}
	if plan.RunID == "" {
		t.Error("Expected a run id")
	}
	if plan.Stats.TotalFiles != 0 {
		t.Errorf("Expected zero stats, got %+v", plan.Stats)
	}
}

func TestPlanInvalidConfig(t *testing.T) {
	cfg := defaultPlanner()
	cfg.SmallFileMaxTokens = cfg.MediumFileMaxTokens + 1000

	p := planner.New(cfg, planner.Options{})
	defer p.Close()

	_, err := p.Plan(context.Background(), []source.FileRef{mkRef("a.go", 3000, 0)})
	if err == nil {
		t.Fatal("Expected a config error")
	}
	if !errors.IsType(err, errors.ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}

func TestPlanCancelledContext(t *testing.T) {
	p := planner.New(defaultPlanner(), planner.Options{})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Plan(ctx, []source.FileRef{mkRef("pkg/a.go", 3000, 0)})
	if err == nil {
		t.Fatal("Expected an error from a cancelled context")
	}
}

func TestPlanTasks(t *testing.T) {
	p := planner.New(defaultPlanner(), planner.Options{Reader: mapReader{}})
	defer p.Close()

	files := []source.FileRef{
		mkRef("pkg/api/auth.go", 3000, 0),
		mkRef("pkg/service/core.go", 17000, 0),
	}
	plan, err := p.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tasks := plan.Tasks()
	if len(tasks) != len(plan.Batches) {
		t.Fatalf("Expected %d tasks, got %d", len(plan.Batches), len(tasks))
	}
	seen := make(map[string]bool)
	for i, task := range tasks {
		if task.Status != batch.StatusPending {
			t.Errorf("Expected pending task, got %s", task.Status)
		}
		if task.Batch.ID != plan.Batches[i].ID {
			t.Errorf("Expected task %d to wrap %s, got %s", i, plan.Batches[i].ID, task.Batch.ID)
		}
		if task.ID == "" || seen[task.ID] {
			t.Errorf("Expected unique task id, got %q", task.ID)
		}
		seen[task.ID] = true
	}
}

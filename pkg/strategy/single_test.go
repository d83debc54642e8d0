// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package strategy_test

import (
	"context"
	"strings"
	"testing"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/strategy"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

func TestSingleWrapsMediumFile(t *testing.T) {
	s := strategy.NewSingleStrategy(plannerConfig(), 2)
	files := []source.FileRef{mkRef("pkg/service/billing.go", 17000, 0)}

	batches, rejected, err := s.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("Expected no rejections, got %d", len(rejected))
	}
	if len(batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(batches))
	}

	b := batches[0]
	if b.ID != "single-001" {
		t.Errorf("Expected id single-001, got %s", b.ID)
	}
	if b.Kind != batch.Single {
		t.Errorf("Expected kind %s, got %s", batch.Single, b.Kind)
	}
	if b.EstimatedTokens != 17000 {
		t.Errorf("Expected 17000 tokens, got %d", b.EstimatedTokens)
	}
	if len(b.Members) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(b.Members))
	}
	if b.Members[0].Priority <= 0 {
		t.Errorf("Expected positive priority, got %d", b.Members[0].Priority)
	}
	for _, key := range []string{"importance", "complexity", "focus_areas", "analysis_depth"} {
		if b.Metadata.Hints[key] == "" {
			t.Errorf("Expected hint %s to be set", key)
		}
	}
	if depth := b.Metadata.Hints["analysis_depth"]; depth != "comprehensive" {
		t.Errorf("Expected comprehensive depth for 17000 tokens, got %s", depth)
	}
	if areas := b.Metadata.Hints["focus_areas"]; areas != "business-logic" {
		t.Errorf("Expected business-logic focus, got %s", areas)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Expected valid batch, got %v", err)
	}
}

func TestSingleOrdersByImportance(t *testing.T) {
	s := strategy.NewSingleStrategy(plannerConfig(), 2)
	files := []source.FileRef{
		mkRef("pkg/text/wrap.go", 16000, 0),
		mkRef("app/routes/router.go", 16000, 1),
		mkRef("pkg/report/report_test.go", 16000, 2),
	}

	batches, _, err := s.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}

	wantOrder := []string{
		"app/routes/router.go",
		"pkg/text/wrap.go",
		"pkg/report/report_test.go",
	}
	for i, b := range batches {
		if b.Members[0].Path != wantOrder[i] {
			t.Errorf("Expected batch %d to hold %s, got %s", i, wantOrder[i], b.Members[0].Path)
		}
	}
	if batches[0].Members[0].Priority <= batches[2].Members[0].Priority {
		t.Error("Expected router to outrank the test file")
	}
}

func TestSingleRejectsOutOfRange(t *testing.T) {
	cfg := plannerConfig()
	s := strategy.NewSingleStrategy(cfg, 2)
	files := []source.FileRef{
		mkRef("low.go", cfg.SmallFileMaxTokens-1000, 0),
		mkRef("high.go", cfg.MediumFileMaxTokens, 1),
	}

	batches, rejected, err := s.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("Expected no batches, got %d", len(batches))
	}
	if len(rejected) != 2 {
		t.Fatalf("Expected 2 rejections, got %d", len(rejected))
	}
	for _, r := range rejected {
		if r.Stage != strategy.TagSingle {
			t.Errorf("Expected stage %s, got %s", strategy.TagSingle, r.Stage)
		}
		if !strings.Contains(r.Reason, "outside medium range") {
			t.Errorf("Expected range reason, got %s", r.Reason)
		}
	}
}

func TestSingleAnalysisDepthBands(t *testing.T) {
	s := strategy.NewSingleStrategy(plannerConfig(), 1)
	files := []source.FileRef{
		mkRef("a/light.go", 15500, 0),
		mkRef("a/middle.go", 17000, 1),
		mkRef("a/dense.go", 19600, 2),
	}

	batches, _, err := s.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}

	depths := make(map[string]string)
	for _, b := range batches {
		depths[b.Members[0].Path] = b.Metadata.Hints["analysis_depth"]
	}
	want := map[string]string{
		"a/light.go":  "basic",
		"a/middle.go": "comprehensive",
		"a/dense.go":  "detailed",
	}
	for path, depth := range want {
		if depths[path] != depth {
			t.Errorf("Expected %s depth for %s, got %s", depth, path, depths[path])
		}
	}
}

func TestSingleFocusAreas(t *testing.T) {
	s := strategy.NewSingleStrategy(plannerConfig(), 1)

	tests := []struct {
		path string
		want string
	}{
		{"api/routes/user_controller.js", "api"},
		{"internal/service/billing.go", "business-logic"},
		{"models/schema.py", "data-model"},
		{"pkg/helpers/text.go", "utility"},
		{"config/settings.yaml", "configuration"},
		{"src/auth/login_test.go", "test"},
		{"docs/overview.md", "general"},
	}

	for _, tt := range tests {
		batches, _, err := s.Plan(context.Background(), []source.FileRef{mkRef(tt.path, 16000, 0)})
		if err != nil {
			t.Fatalf("Expected no error for %s, got %v", tt.path, err)
		}
		if len(batches) != 1 {
			t.Fatalf("Expected 1 batch for %s, got %d", tt.path, len(batches))
		}
		if got := batches[0].Metadata.Hints["focus_areas"]; got != tt.want {
			t.Errorf("Expected focus %s for %s, got %s", tt.want, tt.path, got)
		}
	}
}

func TestSingleRejectsUnusableEstimate(t *testing.T) {
	s := strategy.NewSingleStrategy(plannerConfig(), 1)
	files := []source.FileRef{
		{Path: "broken.go", Estimate: token.Unusable("broken.go", "no estimator output"), OriginalIndex: 0},
	}

	batches, rejected, err := s.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("Expected no batches, got %d", len(batches))
	}
	if len(rejected) != 1 {
		t.Fatalf("Expected 1 rejection, got %d", len(rejected))
	}
	if !strings.Contains(rejected[0].Reason, "no estimator output") {
		t.Errorf("Expected reason to carry the estimate error, got %s", rejected[0].Reason)
	}
}

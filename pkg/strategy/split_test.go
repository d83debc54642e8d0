// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package strategy_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/boundary"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/strategy"
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

type failReader struct{}

func (failReader) Read(_ context.Context, path string) (string, error) {
	return "", errors.ReadError(fmt.Sprintf("failed to read file: %s", path), nil)
}

func newSplit(cfg config.PlannerConfig, reader source.ContentReader) *strategy.SplitStrategy {
	est := token.NewHeuristicEstimator()
	det := boundary.NewStructuralDetector(est)
	return strategy.NewSplitStrategy(cfg, det, reader, est, strategy.DefaultQualityWeights(), 2)
}

func genLargeGoFile(funcs, bodyLines int) string {
	var b strings.Builder
	b.WriteString("package transforms\n\n")
	for i := 0; i < funcs; i++ {
		fmt.Fprintf(&b, "func Transform%03d() {\n", i)
		for j := 0; j < bodyLines; j++ {
			fmt.Fprintf(&b, "\tapply(%03d, %03d)\n", i, j)
		}
		b.WriteString("}\n\n")
	}
	return b.String()
}

func TestSplitLargeFileIntoChunks(t *testing.T) {
	est := token.NewHeuristicEstimator()
	content := genLargeGoFile(230, 45)
	fileTokens := est.Estimate("big/service.go", content).TotalTokens
	if fileTokens < 40000 || fileTokens > 50000 {
		t.Fatalf("Generated file should be near 45000 tokens, got %d", fileTokens)
	}

	cfg := plannerConfig()
	s := newSplit(cfg, mapReader{"big/service.go": content})

	file := mkRef("big/service.go", fileTokens, 0)
	batches, rejected, err := s.Plan(context.Background(), []source.FileRef{file})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("Expected no rejections, got %d", len(rejected))
	}
	if len(batches) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(batches))
	}

	sum := 0
	for i, b := range batches {
		if b.Kind != batch.Chunk {
			t.Errorf("Expected kind %s, got %s", batch.Chunk, b.Kind)
		}
		if b.ChunkInfo.ChunkIndex != i+1 {
			t.Errorf("Expected chunk index %d, got %d", i+1, b.ChunkInfo.ChunkIndex)
		}
		if b.ChunkInfo.TotalChunks != 3 {
			t.Errorf("Expected 3 total chunks, got %d", b.ChunkInfo.TotalChunks)
		}
		if want := fmt.Sprintf("chunk-001-%02d", i+1); b.ID != want {
			t.Errorf("Expected id %s, got %s", want, b.ID)
		}
		if b.ParentFile.Path != "big/service.go" || b.ParentFile.TotalTokens != fileTokens {
			t.Errorf("Unexpected parent ref: %+v", b.ParentFile)
		}
		if b.ChunkInfo.SplitType != boundary.TypeFunction {
			t.Errorf("Expected function-aligned chunk %d, got %s", i, b.ChunkInfo.SplitType)
		}
		if b.Metadata.SplitQuality < 50 {
			t.Errorf("Expected decent split quality, got %d", b.Metadata.SplitQuality)
		}
		if b.Metadata.IsFallback {
			t.Errorf("Chunk %d should not be a fallback", i)
		}
		if err := b.Validate(); err != nil {
			t.Errorf("Chunk %d invalid: %v", i, err)
		}
		sum += b.EstimatedTokens
	}

	if diff := sum - fileTokens; diff < -10 || diff > 10 {
		t.Errorf("Expected chunk sum near %d, got %d", fileTokens, sum)
	}

	// Line ranges tile the file.
	if batches[0].ChunkInfo.StartLine != 1 {
		t.Errorf("Expected first chunk at line 1, got %d", batches[0].ChunkInfo.StartLine)
	}
	for i := 1; i < len(batches); i++ {
		prev, cur := batches[i-1].ChunkInfo, batches[i].ChunkInfo
		if cur.StartLine != prev.EndLine+1 {
			t.Errorf("Expected chunk %d to start at %d, got %d", i, prev.EndLine+1, cur.StartLine)
		}
	}

	first := batches[0].Metadata.Reconstruction
	last := batches[2].Metadata.Reconstruction
	if first.NeedsPrevContext || !first.FeedsNextContext {
		t.Errorf("Unexpected reconstruction on first chunk: %+v", first)
	}
	if !last.NeedsPrevContext || last.FeedsNextContext {
		t.Errorf("Unexpected reconstruction on last chunk: %+v", last)
	}
	if len(first.IntegrationPoints) == 0 {
		t.Error("Expected integration points on a function-aligned chunk")
	}
}

func TestSplitFallbackOnReadError(t *testing.T) {
	cfg := plannerConfig()
	s := newSplit(cfg, failReader{})

	file := mkRef("huge/legacy.go", 45000, 0)
	file.LineCount = 1500

	batches, rejected, err := s.Plan(context.Background(), []source.FileRef{file})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("Expected no rejections, got %d", len(rejected))
	}
	if len(batches) != 3 {
		t.Fatalf("Expected 3 fallback chunks, got %d", len(batches))
	}

	wantRanges := [][2]int{{1, 500}, {501, 1000}, {1001, 1500}}
	sum := 0
	for i, b := range batches {
		if !b.Metadata.IsFallback {
			t.Errorf("Expected chunk %d marked fallback", i)
		}
		if b.Metadata.SplitQuality != 30 {
			t.Errorf("Expected quality 30, got %d", b.Metadata.SplitQuality)
		}
		if b.Metadata.Hints["fallback_cause"] != "read-error" {
			t.Errorf("Expected read-error cause, got %s", b.Metadata.Hints["fallback_cause"])
		}
		if b.ChunkInfo.SplitType != boundary.TypeLines {
			t.Errorf("Expected line-based chunk, got %s", b.ChunkInfo.SplitType)
		}
		if b.ChunkInfo.StartLine != wantRanges[i][0] || b.ChunkInfo.EndLine != wantRanges[i][1] {
			t.Errorf("Expected range %v, got [%d %d]", wantRanges[i], b.ChunkInfo.StartLine, b.ChunkInfo.EndLine)
		}
		if err := b.Validate(); err != nil {
			t.Errorf("Chunk %d invalid: %v", i, err)
		}
		sum += b.EstimatedTokens
	}
	if sum != 45000 {
		t.Errorf("Expected fallback chunks to sum to 45000, got %d", sum)
	}
}

func TestSplitFallbackOnDetectionFailure(t *testing.T) {
	cfg := plannerConfig()
	s := newSplit(cfg, mapReader{"odd/blank.go": "   \n\n  \n"})

	file := mkRef("odd/blank.go", 21000, 0)
	batches, _, err := s.Plan(context.Background(), []source.FileRef{file})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) == 0 {
		t.Fatal("Expected fallback chunks")
	}
	for i, b := range batches {
		if !b.Metadata.IsFallback {
			t.Errorf("Expected chunk %d marked fallback", i)
		}
		if b.Metadata.Hints["fallback_cause"] != "detection-failure" {
			t.Errorf("Expected detection-failure cause, got %s", b.Metadata.Hints["fallback_cause"])
		}
		if b.Metadata.SplitQuality != 30 {
			t.Errorf("Expected quality 30, got %d", b.Metadata.SplitQuality)
		}
	}
}

func TestSplitRejectsBelowThreshold(t *testing.T) {
	cfg := plannerConfig()
	s := newSplit(cfg, mapReader{})

	file := mkRef("mid.go", cfg.MediumFileMaxTokens-1000, 0)
	batches, rejected, err := s.Plan(context.Background(), []source.FileRef{file})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("Expected no batches, got %d", len(batches))
	}
	if len(rejected) != 1 {
		t.Fatalf("Expected 1 rejection, got %d", len(rejected))
	}
	if !strings.Contains(rejected[0].Reason, "below split threshold") {
		t.Errorf("Expected threshold reason, got %s", rejected[0].Reason)
	}
}

func TestSplitCarriesImportContext(t *testing.T) {
	var content strings.Builder
	content.WriteString("package app\n\nimport (\n\t\"fmt\"\n\t\"os\"\n)\n\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&content, "func Step%02d() {\n", i)
		for j := 0; j < 45; j++ {
			fmt.Fprintf(&content, "\tapply(%03d, %03d)\n", i, j)
		}
		content.WriteString("}\n\n")
	}

	cfg := plannerConfig()
	cfg.MediumFileMaxTokens = 1000
	cfg.TargetChunkSize = 800
	cfg.ChunkOverlapTokens = 100

	est := token.NewHeuristicEstimator()
	fileTokens := est.Estimate("app/handlers.go", content.String()).TotalTokens
	s := newSplit(cfg, mapReader{"app/handlers.go": content.String()})

	batches, _, err := s.Plan(context.Background(), []source.FileRef{mkRef("app/handlers.go", fileTokens, 0)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) < 2 {
		t.Fatalf("Expected at least 2 chunks, got %d", len(batches))
	}

	if batches[0].ChunkInfo.ImportContext != "" {
		t.Error("Expected first chunk without carried imports")
	}
	carried := batches[1].ChunkInfo.ImportContext
	if !strings.Contains(carried, `"fmt"`) || !strings.Contains(carried, `"os"`) {
		t.Errorf("Expected carried import block, got %q", carried)
	}
}

func TestSplitRejectsUnusableEstimate(t *testing.T) {
	s := newSplit(plannerConfig(), mapReader{})

	file := source.FileRef{
		Path:     "vendor/minified.js",
		Estimate: token.Unusable("vendor/minified.js", "minified content"),
	}
	batches, rejected, err := s.Plan(context.Background(), []source.FileRef{file})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("Expected no batches, got %d", len(batches))
	}
	if len(rejected) != 1 {
		t.Fatalf("Expected 1 rejection, got %d", len(rejected))
	}
	if rejected[0].Stage != strategy.TagSplit {
		t.Errorf("Expected stage %s, got %s", strategy.TagSplit, rejected[0].Stage)
	}
	if !strings.Contains(rejected[0].Reason, "minified content") {
		t.Errorf("Expected estimator reason, got %s", rejected[0].Reason)
	}
}

func TestSplitMultipleFilesGlobalOrder(t *testing.T) {
	est := token.NewHeuristicEstimator()
	first := genLargeGoFile(120, 45)
	second := genLargeGoFile(130, 45)
	firstTokens := est.Estimate("a/first.go", first).TotalTokens
	secondTokens := est.Estimate("b/second.go", second).TotalTokens

	s := newSplit(plannerConfig(), mapReader{
		"a/first.go":  first,
		"b/second.go": second,
	})

	files := []source.FileRef{
		mkRef("a/first.go", firstTokens, 0),
		mkRef("b/second.go", secondTokens, 1),
	}
	batches, _, err := s.Plan(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(batches) < 4 {
		t.Fatalf("Expected both files split, got %d chunks", len(batches))
	}

	// All of the first file's chunks come before any of the second's.
	boundaryIdx := -1
	for i, b := range batches {
		if b.ParentFile.Path == "b/second.go" {
			boundaryIdx = i
			break
		}
	}
	if boundaryIdx <= 0 {
		t.Fatalf("Expected chunks from both files, boundary at %d", boundaryIdx)
	}
	for i, b := range batches {
		wantParent := "a/first.go"
		if i >= boundaryIdx {
			wantParent = "b/second.go"
		}
		if b.ParentFile.Path != wantParent {
			t.Errorf("Expected chunk %d from %s, got %s", i, wantParent, b.ParentFile.Path)
		}
	}
	if !strings.HasPrefix(batches[0].ID, "chunk-001-") {
		t.Errorf("Expected first family id prefix chunk-001-, got %s", batches[0].ID)
	}
	if !strings.HasPrefix(batches[boundaryIdx].ID, "chunk-002-") {
		t.Errorf("Expected second family id prefix chunk-002-, got %s", batches[boundaryIdx].ID)
	}
}

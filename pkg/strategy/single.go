// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package strategy

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/perf"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
)

// SingleStrategy wraps each medium file in exactly one batch, scored
// so the downstream executor can order and shape its work.
type SingleStrategy struct {
	cfg         config.PlannerConfig
	concurrency int
}

// NewSingleStrategy creates the medium-file strategy.
func NewSingleStrategy(cfg config.PlannerConfig, concurrency int) *SingleStrategy {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SingleStrategy{cfg: cfg, concurrency: concurrency}
}

// Name returns the strategy tag.
func (s *SingleStrategy) Name() string { return TagSingle }

type singleOutcome struct {
	b   *batch.Batch
	rej *Rejection
}

// Plan scores each file concurrently, then sorts the resulting batches
// by descending importance so high-value files are processed first.
// Files outside the configured medium range are rejected, never coerced.
func (s *SingleStrategy) Plan(ctx context.Context, files []source.FileRef) ([]batch.Batch, []Rejection, error) {
	outcomes, err := perf.Map(ctx, files, func(f source.FileRef) (singleOutcome, error) {
		if !f.Estimate.Usable() {
			return singleOutcome{rej: &Rejection{Path: f.Path, Stage: TagSingle, Reason: estimateReason(f)}}, nil
		}
		t := f.Tokens()
		if t < s.cfg.SmallFileMaxTokens || t >= s.cfg.MediumFileMaxTokens {
			return singleOutcome{rej: &Rejection{
				Path:   f.Path,
				Stage:  TagSingle,
				Reason: fmt.Sprintf("token count %d outside medium range [%d, %d)", t, s.cfg.SmallFileMaxTokens, s.cfg.MediumFileMaxTokens),
			}}, nil
		}
		b := s.buildBatch(f)
		return singleOutcome{b: &b}, nil
	}, s.concurrency)
	if err != nil {
		return nil, nil, err
	}

	var batches []batch.Batch
	var rejections []Rejection
	for _, o := range outcomes {
		switch {
		case o.b != nil:
			batches = append(batches, *o.b)
		case o.rej != nil:
			rejections = append(rejections, *o.rej)
		}
	}

	sort.SliceStable(batches, func(i, j int) bool {
		pi, pj := batches[i].Members[0].Priority, batches[j].Members[0].Priority
		if pi != pj {
			return pi > pj
		}
		return batches[i].Members[0].OriginalIndex < batches[j].Members[0].OriginalIndex
	})
	for i := range batches {
		batches[i].ID = fmt.Sprintf("single-%03d", i+1)
	}
	return batches, rejections, nil
}

func (s *SingleStrategy) buildBatch(f source.FileRef) batch.Batch {
	importance := importanceScore(f)
	complexity := complexityScore(f)
	t := f.Tokens()

	return batch.Batch{
		Kind:            batch.Single,
		StrategyTag:     TagSingle,
		EstimatedTokens: t,
		Members: []batch.Member{{
			Path:          f.Path,
			Estimate:      f.Estimate,
			SizeBytes:     f.SizeBytes,
			Language:      f.Language,
			OriginalIndex: f.OriginalIndex,
			Priority:      importance,
		}},
		Metadata: batch.Metadata{
			Description: fmt.Sprintf("focused analysis of %s, %d estimated tokens", f.Path, t),
			Efficiency:  batch.EfficiencyScore(t, s.cfg.TargetBatchSize),
			Hints: map[string]string{
				"importance":     strconv.Itoa(importance),
				"complexity":     strconv.Itoa(complexity),
				"focus_areas":    strings.Join(focusAreas(f.Path), ","),
				"analysis_depth": s.analysisDepth(t),
			},
		},
	}
}

// pathSignal pairs a path keyword with its importance contribution.
type pathSignal struct {
	keyword string
	points  int
}

var importanceSignals = []pathSignal{
	{"router", 10},
	{"controller", 10},
	{"service", 10},
	{"handler", 8},
	{"api", 8},
	{"core", 6},
	{"auth", 6},
}

// importanceScore rates how much attention a file deserves, 0-100.
// Entry points and routing/service code score high, tests score low,
// and visible structure adds bounded increments.
func importanceScore(f source.FileRef) int {
	score := 50
	if entryLike(f.Path) {
		score += 20
	}
	lower := strings.ToLower(f.Path)
	for _, sig := range importanceSignals {
		if strings.Contains(lower, sig.keyword) {
			score += sig.points
		}
	}
	if isTestPath(lower) {
		score -= 25
	}
	if sum := f.Summary; sum != nil {
		score += limited(len(sum.Exports)*2, 10)
		score += limited(len(sum.Classes)*3, 9)
		score += limited(len(sum.Functions), 6)
	}
	return clampScore(score)
}

// complexityScore rates how hard the file is to digest, 0-100. Token
// volume dominates; structure and nesting add on top.
func complexityScore(f source.FileRef) int {
	score := f.Tokens() / 400
	if sum := f.Summary; sum != nil {
		score += len(sum.Functions) * 2
		score += len(sum.Classes) * 3
		score += sum.NestingDepth * 4
		score += len(sum.Dependencies)
	}
	return clampScore(score)
}

func isTestPath(lower string) bool {
	base := filepath.Base(lower)
	return strings.Contains(base, "_test.") ||
		strings.HasPrefix(base, "test_") ||
		strings.Contains(base, ".spec.") ||
		strings.Contains(base, ".test.") ||
		strings.Contains(lower, "/test/") ||
		strings.Contains(lower, "/tests/")
}

// focusArea pairs an area label with the path keywords implying it.
type focusArea struct {
	label    string
	keywords []string
}

var focusAreaTable = []focusArea{
	{"api", []string{"api", "route", "endpoint", "controller", "handler"}},
	{"business-logic", []string{"service", "domain", "core", "logic", "usecase"}},
	{"data-model", []string{"model", "schema", "entity", "store", "repository", "migration"}},
	{"utility", []string{"util", "helper", "common", "shared"}},
	{"configuration", []string{"config", "settings", "env"}},
}

// focusAreas infers what the analysis should concentrate on from the
// file path. Unmatched paths get the general label.
func focusAreas(path string) []string {
	lower := strings.ToLower(path)
	var areas []string
	if isTestPath(lower) {
		areas = append(areas, "test")
	}
	for _, fa := range focusAreaTable {
		for _, kw := range fa.keywords {
			if strings.Contains(lower, kw) {
				areas = append(areas, fa.label)
				break
			}
		}
	}
	if len(areas) == 0 {
		areas = append(areas, "general")
	}
	return areas
}

// analysisDepth buckets the medium range into equal thirds. Smaller
// files get the lighter treatment.
func (s *SingleStrategy) analysisDepth(tokens int) string {
	span := s.cfg.MediumFileMaxTokens - s.cfg.SmallFileMaxTokens
	if span <= 0 {
		return "comprehensive"
	}
	third := span / 3
	switch {
	case tokens < s.cfg.SmallFileMaxTokens+third:
		return "basic"
	case tokens < s.cfg.SmallFileMaxTokens+2*third:
		return "comprehensive"
	default:
		return "detailed"
	}
}

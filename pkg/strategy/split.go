// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package strategy

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/boundary"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/perf"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

// fallbackQuality is the fixed split quality of degraded chunks, low
// enough for downstream consumers to flag them for review.
const fallbackQuality = 30

// SplitStrategy turns each large file into an ordered family of chunk
// batches via boundary detection, degrading to equal-segment splitting
// when content cannot be read or detected.
type SplitStrategy struct {
	cfg         config.PlannerConfig
	detector    boundary.Detector
	reader      source.ContentReader
	est         token.Estimator
	weights     QualityWeights
	concurrency int
}

// NewSplitStrategy creates the large-file strategy.
func NewSplitStrategy(cfg config.PlannerConfig, det boundary.Detector, reader source.ContentReader, est token.Estimator, weights QualityWeights, concurrency int) *SplitStrategy {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SplitStrategy{
		cfg:         cfg,
		detector:    det,
		reader:      reader,
		est:         est,
		weights:     weights,
		concurrency: concurrency,
	}
}

// Name returns the strategy tag.
func (s *SplitStrategy) Name() string { return TagSplit }

type splitOutcome struct {
	batches []batch.Batch
	rej     *Rejection
}

// Plan reads and splits each file concurrently, then orders all chunks
// globally by original file position and position within the file.
func (s *SplitStrategy) Plan(ctx context.Context, files []source.FileRef) ([]batch.Batch, []Rejection, error) {
	outcomes, err := perf.Map(ctx, files, func(f source.FileRef) (splitOutcome, error) {
		if !f.Estimate.Usable() {
			return splitOutcome{rej: &Rejection{Path: f.Path, Stage: TagSplit, Reason: estimateReason(f)}}, nil
		}
		if f.Tokens() < s.cfg.MediumFileMaxTokens {
			return splitOutcome{rej: &Rejection{
				Path:   f.Path,
				Stage:  TagSplit,
				Reason: fmt.Sprintf("token count %d below split threshold %d", f.Tokens(), s.cfg.MediumFileMaxTokens),
			}}, nil
		}
		return splitOutcome{batches: s.splitFile(ctx, f)}, nil
	}, s.concurrency)
	if err != nil {
		return nil, nil, err
	}

	var all []batch.Batch
	var rejections []Rejection
	for _, o := range outcomes {
		all = append(all, o.batches...)
		if o.rej != nil {
			rejections = append(rejections, *o.rej)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		pi, pj := all[i].ParentFile.OriginalIndex, all[j].ParentFile.OriginalIndex
		if pi != pj {
			return pi < pj
		}
		return all[i].ChunkInfo.ChunkIndex < all[j].ChunkInfo.ChunkIndex
	})

	family := 0
	lastParent := ""
	for i := range all {
		if all[i].ParentFile.Path != lastParent {
			family++
			lastParent = all[i].ParentFile.Path
		}
		all[i].ID = fmt.Sprintf("chunk-%03d-%02d", family, all[i].ChunkInfo.ChunkIndex)
	}
	return all, rejections, nil
}

// splitFile produces one file's chunk family, falling back to naive
// segmentation on read or detection failure.
func (s *SplitStrategy) splitFile(ctx context.Context, f source.FileRef) []batch.Batch {
	content, err := s.reader.Read(ctx, f.Path)
	if err != nil {
		return s.fallbackFamily(f, "", "read-error")
	}

	res := s.detector.Detect(f.Path, content, f.Summary, s.cfg.TargetChunkSize)
	if !res.Success || len(res.Chunks) == 0 {
		return s.fallbackFamily(f, content, "detection-failure")
	}

	imports := importContext(content, f.Language, s.cfg.ChunkOverlapTokens)
	total := len(res.Chunks)
	out := make([]batch.Batch, 0, total)
	for i, c := range res.Chunks {
		out = append(out, s.chunkBatch(f, c, i+1, total, imports))
	}
	return out
}

func (s *SplitStrategy) chunkBatch(f source.FileRef, c boundary.Chunk, index, total int, imports string) batch.Batch {
	info := &batch.ChunkInfo{
		ChunkIndex:  index,
		TotalChunks: total,
		StartLine:   c.StartLine,
		EndLine:     c.EndLine,
		Content:     c.Content,
		SplitType:   c.Type,
	}
	// The first chunk already holds the file head; only later chunks
	// need the imports carried forward.
	if index > 1 {
		info.ImportContext = imports
	}

	return batch.Batch{
		Kind:            batch.Chunk,
		StrategyTag:     TagSplit,
		EstimatedTokens: c.EstimatedTokens,
		Members: []batch.Member{{
			Path:          f.Path,
			Estimate:      token.FromCount(c.EstimatedTokens),
			SizeBytes:     f.SizeBytes,
			Language:      f.Language,
			OriginalIndex: f.OriginalIndex,
		}},
		Metadata: batch.Metadata{
			Description:  fmt.Sprintf("chunk %d of %d from %s, lines %d-%d", index, total, f.Path, c.StartLine, c.EndLine),
			Efficiency:   batch.EfficiencyScore(c.EstimatedTokens, s.cfg.TargetChunkSize),
			SplitQuality: s.qualityScore(c, info),
			Reconstruction: &batch.Reconstruction{
				Position:          index,
				Total:             total,
				NeedsPrevContext:  index > 1,
				FeedsNextContext:  index < total,
				IntegrationPoints: integrationPoints(c),
			},
		},
		ChunkInfo: info,
		ParentFile: &batch.ParentFile{
			Path:          f.Path,
			TotalTokens:   f.Tokens(),
			OriginalIndex: f.OriginalIndex,
		},
	}
}

// integrationPoints keeps the strong boundaries a downstream merger
// can re-join analyses at.
func integrationPoints(c boundary.Chunk) []batch.IntegrationPoint {
	var points []batch.IntegrationPoint
	for _, p := range c.Boundaries {
		if p.Priority < boundary.PriorityFuncEnd {
			continue
		}
		points = append(points, batch.IntegrationPoint{Line: p.Line, Type: p.Kind})
	}
	return points
}

// typeScores rates how cleanly each chunk type respects structure.
var typeScores = map[string]int{
	boundary.TypeClass:     100,
	boundary.TypeInterface: 85,
	boundary.TypeFunction:  70,
	boundary.TypeBlock:     50,
	boundary.TypeSegment:   40,
	boundary.TypeMixed:     30,
	boundary.TypeLines:     25,
}

// qualityScore is the weighted 0-100 split quality of one chunk.
func (s *SplitStrategy) qualityScore(c boundary.Chunk, info *batch.ChunkInfo) int {
	w := s.weights

	structural := typeScores[c.Type]
	if structural == 0 {
		structural = 25
	}

	dependency := 40
	if info.ImportContext != "" || info.ChunkIndex == 1 {
		// The first chunk naturally holds the file's imports.
		dependency = 100
	}

	score := float64(structural)*w.Structural +
		float64(contextScore(c, info))*w.Context +
		float64(sizeScore(c.EstimatedTokens, s.cfg.TargetChunkSize))*w.Size +
		float64(dependency)*w.Dependency +
		float64(readabilityScore(c))*w.Readability
	return clampScore(int(math.Round(score)))
}

// contextScore rewards chunks whose content keeps surrounding meaning:
// retained imports or comments, and strong contained boundaries.
func contextScore(c boundary.Chunk, info *batch.ChunkInfo) int {
	score := 40
	if strings.Contains(c.Content, "import ") || strings.Contains(c.Content, "require(") || info.ImportContext != "" {
		score += 30
	}
	if strings.Contains(c.Content, "//") || strings.Contains(c.Content, "#") || strings.Contains(c.Content, "/*") {
		score += 10
	}
	for _, p := range c.Boundaries {
		if p.Priority >= boundary.PriorityFuncEnd {
			score += 20
			break
		}
	}
	return clampScore(score)
}

// sizeScore is the closeness ratio to the target, scaled to 0-100.
func sizeScore(estimated, target int) int {
	if target <= 0 || estimated <= 0 {
		return 0
	}
	ratio := float64(estimated) / float64(target)
	if ratio > 1 {
		ratio = 1 / ratio
	}
	return clampScore(int(math.Round(ratio * 100)))
}

// readabilityScore rewards a chunk a human could orient in: aligned
// with a named construct and neither a sliver nor a monster.
func readabilityScore(c boundary.Chunk) int {
	score := 50
	if c.Type != boundary.TypeMixed && c.Type != boundary.TypeLines {
		score += 25
	}
	if lines := c.EndLine - c.StartLine + 1; lines >= 20 && lines <= 1200 {
		score += 25
	}
	return clampScore(score)
}

var (
	reImportLines = regexp.MustCompile(`(?m)^[ \t]*(?:import\b[^\n]*|from[ \t]+\S+[ \t]+import[^\n]*|(?:const|let|var)[ \t]+[^\n]*=[ \t]*require\([^\n]*|#include[^\n]*|using[ \t][^\n]*)$`)
	reImportBlock = regexp.MustCompile(`(?ms)^import[ \t]*\(.*?^\)`)
)

// importContext extracts the file's import region so later chunks can
// carry it forward, capped near the configured overlap budget.
func importContext(content, language string, overlapTokens int) string {
	if content == "" || overlapTokens <= 0 {
		return ""
	}

	var section string
	if language == "go" {
		section = reImportBlock.FindString(content)
	}
	if section == "" {
		section = strings.Join(reImportLines.FindAllString(content, -1), "\n")
	}
	if section == "" {
		return ""
	}

	if limit := overlapTokens * token.DefaultCharsPerToken; len(section) > limit {
		section = section[:limit]
	}
	return section
}

// fallbackFamily produces the degraded equal-segment split used when
// content is unreadable or detection fails. The chunk count comes from
// the token estimate so the family still lands near the target size.
func (s *SplitStrategy) fallbackFamily(f source.FileRef, content, cause string) []batch.Batch {
	count := (f.Tokens() + s.cfg.TargetChunkSize - 1) / s.cfg.TargetChunkSize
	if count < 1 {
		count = 1
	}

	var chunks []boundary.Chunk
	if content != "" {
		chunks = boundary.NaiveSplit(f.Path, content, count, s.est)
	} else {
		chunks = syntheticChunks(f, count)
	}

	total := len(chunks)
	family := make([]batch.Batch, 0, total)
	for i, c := range chunks {
		b := s.chunkBatch(f, c, i+1, total, "")
		b.Metadata.IsFallback = true
		b.Metadata.SplitQuality = fallbackQuality
		b.Metadata.Hints = map[string]string{"fallback_cause": cause}
		family = append(family, b)
	}
	return family
}

// syntheticChunks divides an unreadable file by line ranges alone. The
// token estimate is split evenly with the remainder on the last chunk,
// so the family total matches the file exactly.
func syntheticChunks(f source.FileRef, count int) []boundary.Chunk {
	lineCount := f.LineCount
	if lineCount <= 0 {
		// No recorded line count; assume ordinary source density.
		lineCount = f.Tokens() / 8
	}
	if lineCount < count {
		lineCount = count
	}

	per := (lineCount + count - 1) / count
	var ranges [][2]int
	for start := 1; start <= lineCount; start += per {
		end := start + per - 1
		if end > lineCount {
			end = lineCount
		}
		ranges = append(ranges, [2]int{start, end})
	}

	n := len(ranges)
	share := f.Tokens() / n
	chunks := make([]boundary.Chunk, 0, n)
	for i, r := range ranges {
		tokens := share
		if i == n-1 {
			tokens = f.Tokens() - share*(n-1)
		}
		chunks = append(chunks, boundary.Chunk{
			StartLine:       r[0],
			EndLine:         r[1],
			EstimatedTokens: tokens,
			Type:            boundary.TypeLines,
		})
	}
	return chunks
}

// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package strategy implements the three batch-forming strategies:
// combining small files into shared batches, wrapping medium files one
// per batch, and splitting large files into ordered chunk families.
package strategy

import (
	"context"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
)

// Strategy tags, recorded on every batch a strategy produces.
const (
	TagCombined = "combined-files"
	TagSingle   = "single-file"
	TagSplit    = "split-large-file"
)

// Strategy turns one size bucket of files into batches. A strategy
// never fails a run as a whole: per-file problems become Rejections,
// and the error return is reserved for cancellation.
type Strategy interface {
	Name() string
	Plan(ctx context.Context, files []source.FileRef) ([]batch.Batch, []Rejection, error)
}

// Rejection reports one file excluded from planning and the stage that
// refused it. Every input file ends up in a batch or a rejection;
// nothing is dropped silently.
type Rejection struct {
	Path   string `json:"path" yaml:"path"`
	Stage  string `json:"stage" yaml:"stage"`
	Reason string `json:"reason" yaml:"reason"`
}

// RelationshipWeights are the pairwise affinity weights used when
// grouping small files. Hoisted into a value so calibration does not
// mean hunting constants through the grouping code.
type RelationshipWeights struct {
	SameDirectory   int
	SimilarBasename int
	SameExtension   int
	ImportCrossRef  int
	SameModule      int
	SimilarSize     int
	// NameSimilarityMin is the ratio a basename pair must exceed before
	// SimilarBasename applies.
	NameSimilarityMin float64
	// SizeRatioMin is the small/large token ratio SimilarSize requires.
	SizeRatioMin float64
}

// DefaultRelationshipWeights returns the standard grouping weights.
func DefaultRelationshipWeights() RelationshipWeights {
	return RelationshipWeights{
		SameDirectory:     5,
		SimilarBasename:   3,
		SameExtension:     2,
		ImportCrossRef:    8,
		SameModule:        6,
		SimilarSize:       1,
		NameSimilarityMin: 0.6,
		SizeRatioMin:      0.7,
	}
}

// QualityWeights weight the components of a chunk's split-quality
// score. The components are each 0-100 and the weights sum to 1.
type QualityWeights struct {
	Structural  float64
	Context     float64
	Size        float64
	Dependency  float64
	Readability float64
}

// DefaultQualityWeights returns the standard split-quality weighting.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		Structural:  0.30,
		Context:     0.25,
		Size:        0.20,
		Dependency:  0.15,
		Readability: 0.10,
	}
}

// estimateReason describes why a file's estimate is unusable.
func estimateReason(f source.FileRef) string {
	if f.Estimate.Metadata != nil && f.Estimate.Metadata.Error != "" {
		return "unusable token estimate: " + f.Estimate.Metadata.Error
	}
	return "unusable token estimate"
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func limited(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}

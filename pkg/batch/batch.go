// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package batch defines the unified batch result type produced by all
// planning strategies, and the task wrapper for downstream execution.
package batch

import (
	"fmt"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

// Kind identifies which strategy family produced a batch.
type Kind string

const (
	// Combined batches pack several small files together.
	Combined Kind = "combined"
	// Single batches wrap exactly one medium file.
	Single Kind = "single"
	// Chunk batches carry one slice of a split large file.
	Chunk Kind = "chunk"
)

// Member is one file's placement inside a batch.
type Member struct {
	Path          string         `json:"path" yaml:"path"`
	Estimate      token.Estimate `json:"estimate" yaml:"estimate"`
	SizeBytes     int64          `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	Language      string         `json:"language,omitempty" yaml:"language,omitempty"`
	OriginalIndex int            `json:"original_index" yaml:"original_index"`
	Priority      int            `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// ChunkInfo describes one slice of a split file. Present only on Chunk
// batches.
type ChunkInfo struct {
	// ChunkIndex is 1-based and runs in file order.
	ChunkIndex  int    `json:"chunk_index" yaml:"chunk_index"`
	TotalChunks int    `json:"total_chunks" yaml:"total_chunks"`
	StartLine   int    `json:"start_line" yaml:"start_line"`
	EndLine     int    `json:"end_line" yaml:"end_line"`
	Content     string `json:"content,omitempty" yaml:"content,omitempty"`
	SplitType   string `json:"split_type" yaml:"split_type"`
	// ImportContext is import text carried forward from the file head so
	// later chunks stay interpretable on their own.
	ImportContext string `json:"import_context,omitempty" yaml:"import_context,omitempty"`
}

// ParentFile identifies the file a chunk family was split from.
type ParentFile struct {
	Path          string `json:"path" yaml:"path"`
	TotalTokens   int    `json:"total_tokens" yaml:"total_tokens"`
	OriginalIndex int    `json:"original_index" yaml:"original_index"`
}

// IntegrationPoint marks a boundary useful when re-merging per-chunk
// analyses.
type IntegrationPoint struct {
	Line int    `json:"line" yaml:"line"`
	Type string `json:"type" yaml:"type"`
}

// Reconstruction tells the downstream consumer how a chunk relates to
// its neighbors.
type Reconstruction struct {
	Position          int                `json:"position" yaml:"position"`
	Total             int                `json:"total" yaml:"total"`
	NeedsPrevContext  bool               `json:"needs_prev_context" yaml:"needs_prev_context"`
	FeedsNextContext  bool               `json:"feeds_next_context" yaml:"feeds_next_context"`
	IntegrationPoints []IntegrationPoint `json:"integration_points,omitempty" yaml:"integration_points,omitempty"`
}

// Metadata carries batch self-description for prompt formatting.
type Metadata struct {
	Description string `json:"description" yaml:"description"`
	// Efficiency scores how close the batch is to the target size, 0-100.
	Efficiency int               `json:"efficiency" yaml:"efficiency"`
	Hints      map[string]string `json:"hints,omitempty" yaml:"hints,omitempty"`
	// SplitQuality scores chunk boundary alignment, 0-100. Chunks only.
	SplitQuality    int             `json:"split_quality,omitempty" yaml:"split_quality,omitempty"`
	IsFallback      bool            `json:"is_fallback,omitempty" yaml:"is_fallback,omitempty"`
	ProcessingOrder int             `json:"processing_order" yaml:"processing_order"`
	Reconstruction  *Reconstruction `json:"reconstruction,omitempty" yaml:"reconstruction,omitempty"`
}

// Batch is the unified output of every planning strategy.
type Batch struct {
	ID          string `json:"id" yaml:"id"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	StrategyTag string `json:"strategy" yaml:"strategy"`
	// EstimatedTokens equals the member sum for Combined and Single
	// batches, and the chunk's own estimate for Chunk batches.
	EstimatedTokens int         `json:"estimated_tokens" yaml:"estimated_tokens"`
	Members         []Member    `json:"members" yaml:"members"`
	Metadata        Metadata    `json:"metadata" yaml:"metadata"`
	ChunkInfo       *ChunkInfo  `json:"chunk_info,omitempty" yaml:"chunk_info,omitempty"`
	ParentFile      *ParentFile `json:"parent_file,omitempty" yaml:"parent_file,omitempty"`
}

// Validate checks the structural rules every strategy must uphold. A
// batch failing validation is a programming error in the producing
// strategy, not a recoverable input condition.
func (b *Batch) Validate() error {
	if b.ID == "" {
		return errors.ValidationError("batch has no id", nil)
	}
	if b.StrategyTag == "" {
		return errors.ValidationError(fmt.Sprintf("batch %s has no strategy tag", b.ID), nil)
	}
	if b.EstimatedTokens < 0 {
		return errors.ValidationError(fmt.Sprintf("batch %s has negative estimate", b.ID), nil)
	}

	switch b.Kind {
	case Combined:
		if len(b.Members) < 1 {
			return errors.ValidationError(fmt.Sprintf("combined batch %s has no members", b.ID), nil)
		}
		if b.ChunkInfo != nil || b.ParentFile != nil {
			return errors.ValidationError(fmt.Sprintf("combined batch %s carries chunk fields", b.ID), nil)
		}
	case Single:
		if len(b.Members) != 1 {
			return errors.ValidationError(fmt.Sprintf("single batch %s has %d members", b.ID, len(b.Members)), nil)
		}
		if b.ChunkInfo != nil || b.ParentFile != nil {
			return errors.ValidationError(fmt.Sprintf("single batch %s carries chunk fields", b.ID), nil)
		}
	case Chunk:
		if len(b.Members) != 1 {
			return errors.ValidationError(fmt.Sprintf("chunk batch %s has %d members", b.ID, len(b.Members)), nil)
		}
		if b.ChunkInfo == nil || b.ParentFile == nil {
			return errors.ValidationError(fmt.Sprintf("chunk batch %s missing chunk info or parent ref", b.ID), nil)
		}
		ci := b.ChunkInfo
		if ci.ChunkIndex < 1 || ci.ChunkIndex > ci.TotalChunks {
			return errors.ValidationError(fmt.Sprintf("chunk batch %s has index %d of %d", b.ID, ci.ChunkIndex, ci.TotalChunks), nil)
		}
		if ci.StartLine < 1 || ci.EndLine < ci.StartLine {
			return errors.ValidationError(fmt.Sprintf("chunk batch %s has line range %d-%d", b.ID, ci.StartLine, ci.EndLine), nil)
		}
	default:
		return errors.ValidationError(fmt.Sprintf("batch %s has unknown kind %q", b.ID, b.Kind), nil)
	}

	// Conservation: the batch estimate must equal the member sum. Chunk
	// batches hold one member whose estimate is the chunk's own.
	sum := 0
	for _, m := range b.Members {
		sum += m.Estimate.TotalTokens
	}
	if sum != b.EstimatedTokens {
		return errors.ValidationError(
			fmt.Sprintf("batch %s estimate %d does not match member sum %d", b.ID, b.EstimatedTokens, sum), nil)
	}

	return nil
}

// MemberPaths returns the member file paths in order.
func (b *Batch) MemberPaths() []string {
	paths := make([]string, len(b.Members))
	for i, m := range b.Members {
		paths[i] = m.Path
	}
	return paths
}

// EfficiencyScore rates how close estimated is to target:
// round(min(estimated/target, 1) * 100).
func EfficiencyScore(estimated, target int) int {
	if target <= 0 || estimated >= target {
		return 100
	}
	if estimated <= 0 {
		return 0
	}
	return (estimated*100 + target/2) / target
}

// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package boundary proposes cut points that align with code structure.
//
// Given file content and a target chunk size, a detector returns an
// ordered list of chunks whose line ranges reconstruct the file, each
// chunk close to the target and, where possible, not cutting through a
// function or class body.
package boundary

import (
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
)

// Cut point priorities, low to high. A class end is the best place to
// cut; an arbitrary line is the last resort.
const (
	PriorityArbitrary = 1
	PriorityBlank     = 2
	PriorityBlockEnd  = 3
	PriorityFuncEnd   = 4
	PriorityClassEnd  = 5
)

// Chunk type names, in descending structural value. "mixed" marks a
// forced cut through a semantic unit; "lines" marks naive equal-length
// splitting.
const (
	TypeClass     = "class"
	TypeInterface = "interface"
	TypeFunction  = "function"
	TypeBlock     = "block"
	TypeSegment   = "segment"
	TypeMixed     = "mixed"
	TypeLines     = "lines"
)

// Point is one candidate cut location: cutting after Line keeps the
// construct ending there intact.
type Point struct {
	Line     int    `json:"line" yaml:"line"`
	Priority int    `json:"priority" yaml:"priority"`
	Kind     string `json:"kind" yaml:"kind"`
}

// Chunk is one contiguous slice of a file. Lines are 1-based and
// inclusive.
type Chunk struct {
	StartLine       int     `json:"start_line" yaml:"start_line"`
	EndLine         int     `json:"end_line" yaml:"end_line"`
	Content         string  `json:"content,omitempty" yaml:"content,omitempty"`
	EstimatedTokens int     `json:"estimated_tokens" yaml:"estimated_tokens"`
	Type            string  `json:"type" yaml:"type"`
	Boundaries      []Point `json:"boundaries,omitempty" yaml:"boundaries,omitempty"`
}

// Result is a detection outcome. Success is false only when no
// segmentation at all could be produced (empty content, nonsense
// target); callers fall back to naive line splitting in that case.
type Result struct {
	Success bool    `json:"success" yaml:"success"`
	Chunks  []Chunk `json:"chunks,omitempty" yaml:"chunks,omitempty"`
}

// Detector proposes a chunk plan for one file. Implementations never
// fail on malformed code; worst case they degrade to arbitrary cuts
// with lower-quality chunk types.
type Detector interface {
	Detect(path, content string, summary *source.StructuralSummary, targetTokens int) Result
}

// kindRank orders chunk types for picking the dominant type of a range.
func kindRank(kind string) int {
	switch kind {
	case TypeClass:
		return 6
	case TypeInterface:
		return 5
	case TypeFunction:
		return 4
	case TypeBlock:
		return 3
	case TypeSegment:
		return 2
	default:
		return 1
	}
}

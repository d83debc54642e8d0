// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package source provides the analyzed-file input model for planning:
// file references with token estimates, structural summaries extracted
// from source text, and the tree scanner that produces them.
package source

import (
	"context"
	"fmt"
	"os"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

// FileRef is one analyzed file presented to the planner. Immutable for
// the duration of a planning run; the planner only reads it.
type FileRef struct {
	// Path uniquely identifies the file within a planning run.
	Path      string         `json:"path" yaml:"path"`
	Estimate  token.Estimate `json:"estimate" yaml:"estimate"`
	SizeBytes int64          `json:"size_bytes" yaml:"size_bytes"`
	Language  string         `json:"language" yaml:"language"`
	LineCount int            `json:"line_count" yaml:"line_count"`
	// OriginalIndex is the file's position in the scan order. Batch
	// ordering and chunk renumbering key off it.
	OriginalIndex int                `json:"original_index" yaml:"original_index"`
	Summary       *StructuralSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Tokens returns the canonical token count for the file.
func (f *FileRef) Tokens() int {
	return f.Estimate.TotalTokens
}

// SymbolRef locates one named symbol in a file.
type SymbolRef struct {
	Name string `json:"name" yaml:"name"`
	Line int    `json:"line" yaml:"line"`
}

// StructuralSummary is the shallow structural view of a file used for
// relationship scoring and boundary seeding. Extraction is regex-based,
// not a full parse.
type StructuralSummary struct {
	Imports      []string    `json:"imports,omitempty" yaml:"imports,omitempty"`
	Exports      []string    `json:"exports,omitempty" yaml:"exports,omitempty"`
	Functions    []SymbolRef `json:"functions,omitempty" yaml:"functions,omitempty"`
	Classes      []SymbolRef `json:"classes,omitempty" yaml:"classes,omitempty"`
	NestingDepth int         `json:"nesting_depth,omitempty" yaml:"nesting_depth,omitempty"`
	// Dependencies are normalized import targets, reduced to bare names
	// comparable against other files' basenames.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// ContentReader supplies raw file content for splitting. Only files
// routed to the chunking strategy are read through it.
type ContentReader interface {
	Read(ctx context.Context, path string) (string, error)
}

// OSReader reads content from the local filesystem.
type OSReader struct{}

// Read returns the file's content or a typed read error.
func (OSReader) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.ReadError(fmt.Sprintf("read cancelled: %s", path), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.ReadError(fmt.Sprintf("failed to read file: %s", path), err)
	}
	return string(data), nil
}

// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package output renders a finished plan for files and terminals.
// Structured formats (yaml, json) round-trip the full plan; markdown
// and the terminal report are for humans.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/planner"
	"gopkg.in/yaml.v3"
)

// Formatter renders a plan to a string.
type Formatter interface {
	Format(plan *planner.Plan) (string, error)
}

// ForName returns the formatter registered for a format name.
func ForName(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return &YAMLFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "markdown", "md":
		return NewMarkdownFormatter(), nil
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown output format: %s", format), nil)
	}
}

// YAMLFormatter renders the plan as YAML.
type YAMLFormatter struct{}

func (*YAMLFormatter) Format(plan *planner.Plan) (string, error) {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return "", errors.ValidationError("failed to marshal plan to yaml", err)
	}
	return string(data), nil
}

// JSONFormatter renders the plan as indented JSON.
type JSONFormatter struct{}

func (*JSONFormatter) Format(plan *planner.Plan) (string, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", errors.ValidationError("failed to marshal plan to json", err)
	}
	return string(data) + "\n", nil
}

// MarkdownFormatter renders a human-readable plan document.
type MarkdownFormatter struct {
	builder strings.Builder
}

// NewMarkdownFormatter creates a new markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders the plan to markdown.
func (f *MarkdownFormatter) Format(plan *planner.Plan) (string, error) {
	f.builder.Reset()
	f.writeHeader("Batch Plan", 1)
	f.writeRaw(fmt.Sprintf("Run `%s`, created %s.", plan.RunID, plan.CreatedAt.Format(time.RFC3339)))
	f.writeNewline()

	f.writeSummary(plan.Stats)
	f.writeBatches(plan.Batches)
	f.writeRejections(plan)

	return f.builder.String(), nil
}

func (f *MarkdownFormatter) writeSummary(s planner.Stats) {
	f.writeHeader("Summary", 2)
	f.writeRaw("| Metric | Value |")
	f.writeRaw("|--------|-------|")
	f.writeRaw(fmt.Sprintf("| Files | %d |", s.TotalFiles))
	f.writeRaw(fmt.Sprintf("| Planned | %d |", s.PlannedFiles))
	f.writeRaw(fmt.Sprintf("| Rejected | %d |", s.RejectedFiles))
	f.writeRaw(fmt.Sprintf("| Total tokens | %d |", s.TotalTokens))
	f.writeRaw(fmt.Sprintf("| Combined batches | %d |", s.CombinedBatches))
	f.writeRaw(fmt.Sprintf("| Single-file batches | %d |", s.SingleBatches))
	f.writeRaw(fmt.Sprintf("| Chunk batches | %d |", s.ChunkBatches))
	f.writeNewline()
}

func (f *MarkdownFormatter) writeBatches(batches []batch.Batch) {
	if len(batches) == 0 {
		return
	}
	f.writeHeader("Batches", 2)
	for _, b := range batches {
		f.writeBatch(b)
	}
}

func (f *MarkdownFormatter) writeBatch(b batch.Batch) {
	f.writeHeader(fmt.Sprintf("%s (%s)", b.ID, b.Kind), 3)
	f.writeRaw(b.Metadata.Description)
	f.writeNewline()

	if b.Kind == batch.Chunk && b.ChunkInfo != nil {
		info := b.ChunkInfo
		f.writeRaw(fmt.Sprintf("Chunk %d of %d, lines %d-%d, %s split, quality %d.",
			info.ChunkIndex, info.TotalChunks, info.StartLine, info.EndLine,
			info.SplitType, b.Metadata.SplitQuality))
		if b.Metadata.IsFallback {
			f.writeRaw("Produced by the degraded equal-segment path.")
		}
		f.writeNewline()
		return
	}

	f.writeRaw("| File | Tokens | Language |")
	f.writeRaw("|------|--------|----------|")
	for _, m := range b.Members {
		f.writeRaw(fmt.Sprintf("| %s | %d | %s |", m.Path, m.Estimate.TotalTokens, m.Language))
	}
	f.writeNewline()
}

func (f *MarkdownFormatter) writeRejections(plan *planner.Plan) {
	if len(plan.Rejected) == 0 {
		return
	}
	f.writeHeader("Rejections", 2)
	f.writeRaw("| File | Stage | Reason |")
	f.writeRaw("|------|-------|--------|")
	for _, r := range plan.Rejected {
		f.writeRaw(fmt.Sprintf("| %s | %s | %s |", r.Path, r.Stage, r.Reason))
	}
	f.writeNewline()
}

func (f *MarkdownFormatter) writeHeader(text string, level int) {
	f.builder.WriteString(strings.Repeat("#", level))
	f.builder.WriteString(" ")
	f.builder.WriteString(text)
	f.builder.WriteString("\n\n")
}

func (f *MarkdownFormatter) writeRaw(text string) {
	f.builder.WriteString(text)
	f.builder.WriteString("\n")
}

func (f *MarkdownFormatter) writeNewline() {
	f.builder.WriteString("\n")
}

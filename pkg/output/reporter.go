// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/planner"
)

// previewBatches is how many batches the terminal report lists before
// truncating.
const previewBatches = 8

// Reporter writes a styled plan summary for terminals. Styling
// degrades to plain text automatically when the writer is not a TTY.
type Reporter struct {
	w io.Writer

	title  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	warn   lipgloss.Style
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{
		w:      w,
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		header: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Report writes the plan summary.
func (r *Reporter) Report(plan *planner.Plan) error {
	var s string

	s += r.title.Render("Batch Plan") + "\n\n"
	s += fmt.Sprintf("Run: %s\n", r.header.Render(plan.RunID))

	st := plan.Stats
	s += fmt.Sprintf("Files: %s planned, %s rejected, %s tokens\n\n",
		r.header.Render(fmt.Sprintf("%d", st.PlannedFiles)),
		r.renderRejected(st.RejectedFiles),
		r.header.Render(fmt.Sprintf("%d", st.TotalTokens)))

	s += r.label.Render("Batches by strategy:") + "\n"
	s += fmt.Sprintf("  combined:   %s\n", r.renderCount(st.CombinedBatches))
	s += fmt.Sprintf("  single:     %s\n", r.renderCount(st.SingleBatches))
	s += fmt.Sprintf("  chunk:      %s\n\n", r.renderCount(st.ChunkBatches))

	s += r.renderPreview(plan.Batches)
	s += r.renderRejections(plan)

	_, err := io.WriteString(r.w, s)
	return err
}

func (r *Reporter) renderPreview(batches []batch.Batch) string {
	if len(batches) == 0 {
		return ""
	}

	s := r.label.Render(fmt.Sprintf("Batch preview (first %d):", previewBatches)) + "\n"
	for i, b := range batches {
		if i >= previewBatches {
			break
		}
		kindStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(kindColor(b)))
		s += fmt.Sprintf("  %d. %-14s [%s] %d tokens, %s\n",
			i+1, b.ID, kindStyle.Render(string(b.Kind)),
			b.EstimatedTokens, b.Metadata.Description)
	}
	if len(batches) > previewBatches {
		s += fmt.Sprintf("  ... and %d more batches\n", len(batches)-previewBatches)
	}
	return s + "\n"
}

func (r *Reporter) renderRejections(plan *planner.Plan) string {
	if len(plan.Rejected) == 0 {
		return ""
	}

	s := r.warn.Render(fmt.Sprintf("Rejected files (%d):", len(plan.Rejected))) + "\n"
	for _, rej := range plan.Rejected {
		s += fmt.Sprintf("  %s: %s\n", rej.Path, rej.Reason)
	}
	return s + "\n"
}

func (r *Reporter) renderCount(count int) string {
	style := r.header
	if count == 0 {
		style = r.label
	}
	return style.Render(fmt.Sprintf("%d batches", count))
}

func (r *Reporter) renderRejected(count int) string {
	if count == 0 {
		return r.header.Render("0")
	}
	return r.warn.Render(fmt.Sprintf("%d", count))
}

// kindColor picks the ANSI color for a batch kind. Fallback chunks
// show red regardless of kind.
func kindColor(b batch.Batch) string {
	if b.Metadata.IsFallback {
		return "1"
	}
	switch b.Kind {
	case batch.Combined:
		return "2"
	case batch.Single:
		return "12"
	case batch.Chunk:
		return "3"
	default:
		return "8"
	}
}

// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package batch

import (
	"fmt"
	"time"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/google/uuid"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Timing records task lifecycle timestamps.
type Timing struct {
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Task wraps one batch with lifecycle tracking for whatever executes
// it. The planner only ever creates tasks in StatusPending; the
// executor advances them from there.
type Task struct {
	ID     string            `json:"id" yaml:"id"`
	Status Status            `json:"status" yaml:"status"`
	Batch  Batch             `json:"batch" yaml:"batch"`
	Hints  map[string]string `json:"hints,omitempty" yaml:"hints,omitempty"`
	Timing Timing            `json:"timing" yaml:"timing"`
}

// NewTask wraps a batch in a pending task. The batch's metadata hints
// are carried up so the executor can format a prompt without digging.
func NewTask(b Batch) *Task {
	return &Task{
		ID:     uuid.NewString(),
		Status: StatusPending,
		Batch:  b,
		Hints:  b.Metadata.Hints,
		Timing: Timing{CreatedAt: time.Now()},
	}
}

// Start moves a pending task into progress.
func (t *Task) Start() error {
	if t.Status != StatusPending {
		return transitionError(t, StatusInProgress)
	}
	now := time.Now()
	t.Status = StatusInProgress
	t.Timing.StartedAt = &now
	return nil
}

// Complete marks an in-progress task as finished.
func (t *Task) Complete() error {
	if t.Status != StatusInProgress {
		return transitionError(t, StatusCompleted)
	}
	now := time.Now()
	t.Status = StatusCompleted
	t.Timing.CompletedAt = &now
	return nil
}

// Fail marks an in-progress task as failed.
func (t *Task) Fail() error {
	if t.Status != StatusInProgress {
		return transitionError(t, StatusFailed)
	}
	now := time.Now()
	t.Status = StatusFailed
	t.Timing.CompletedAt = &now
	return nil
}

// Cancel aborts a task that has not finished.
func (t *Task) Cancel() error {
	if t.Status != StatusPending && t.Status != StatusInProgress {
		return transitionError(t, StatusCancelled)
	}
	now := time.Now()
	t.Status = StatusCancelled
	t.Timing.CompletedAt = &now
	return nil
}

// Terminal reports whether the task has reached a final state.
func (t *Task) Terminal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

func transitionError(t *Task, to Status) error {
	return errors.ValidationError(
		fmt.Sprintf("task %s cannot move from %s to %s", t.ID, t.Status, to), nil)
}

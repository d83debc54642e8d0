// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package token provides the token estimate value type and estimators.
//
// Upstream estimators historically returned inconsistent shapes: a bare
// count, a rich object, or a decoded JSON map. Extract normalizes all of
// them at ingestion boundaries so the rest of the planner only ever sees
// Estimate values.
package token

import (
	"time"
)

// DefaultCharsPerToken is the character-to-token ratio assumed by the
// heuristic estimator and by boundary sizing.
const DefaultCharsPerToken = 4

// Estimate is the canonical token-count result for one file.
type Estimate struct {
	// TotalTokens is the single canonical count. Always >= 0.
	TotalTokens int       `json:"total_tokens" yaml:"total_tokens"`
	Details     *Details  `json:"details,omitempty" yaml:"details,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Details carries optional per-estimate refinements. SafeTokenCount is a
// buffered lower bound, always <= TotalTokens.
type Details struct {
	EstimatedTokens int        `json:"estimated_tokens" yaml:"estimated_tokens"`
	SafeTokenCount  int        `json:"safe_token_count" yaml:"safe_token_count"`
	Breakdown       *Breakdown `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
	Confidence      float64    `json:"confidence" yaml:"confidence"`
}

// Breakdown splits the character count by syntactic class.
type Breakdown struct {
	CharCount    int `json:"char_count" yaml:"char_count"`
	CodeChars    int `json:"code_chars" yaml:"code_chars"`
	CommentChars int `json:"comment_chars" yaml:"comment_chars"`
	StringChars  int `json:"string_chars" yaml:"string_chars"`
}

// Metadata records where an estimate came from.
type Metadata struct {
	SourcePath string    `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	Language   string    `json:"language,omitempty" yaml:"language,omitempty"`
	Method     string    `json:"method,omitempty" yaml:"method,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	FromCache  bool      `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`
	// Error marks the estimate unusable. TotalTokens is 0 by convention
	// and must not be read as a true zero-size file.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// New builds an Estimate, clamping negative counts to 0.
func New(totalTokens int, details *Details, metadata *Metadata) Estimate {
	if totalTokens < 0 {
		totalTokens = 0
	}
	return Estimate{
		TotalTokens: totalTokens,
		Details:     details,
		Metadata:    metadata,
	}
}

// FromCount builds a bare Estimate from a count.
func FromCount(n int) Estimate {
	return New(n, nil, nil)
}

// Unusable builds an errored Estimate for a file that could not be measured.
func Unusable(path, reason string) Estimate {
	return Estimate{
		TotalTokens: 0,
		Metadata: &Metadata{
			SourcePath: path,
			Timestamp:  time.Now(),
			Error:      reason,
		},
	}
}

// Usable reports whether the estimate carries a real count.
func (e Estimate) Usable() bool {
	return e.Metadata == nil || e.Metadata.Error == ""
}

// Extract returns the canonical token count from any shape an upstream
// estimator may produce: a bare number, an Estimate, or a decoded map.
// Resolution order: totalTokens, then safeTokenCount, then
// estimatedTokens, then 0.
func Extract(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return clamp(val)
	case int32:
		return clamp(int(val))
	case int64:
		return clamp(int(val))
	case float32:
		return clamp(int(val))
	case float64:
		return clamp(int(val))
	case Estimate:
		return clamp(val.TotalTokens)
	case *Estimate:
		if val == nil {
			return 0
		}
		return clamp(val.TotalTokens)
	case map[string]any:
		for _, key := range []string{
			"totalTokens", "total_tokens",
			"safeTokenCount", "safe_token_count",
			"estimatedTokens", "estimated_tokens",
		} {
			if raw, ok := val[key]; ok {
				if n, ok := asInt(raw); ok {
					return clamp(n)
				}
			}
		}
		return 0
	default:
		return 0
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

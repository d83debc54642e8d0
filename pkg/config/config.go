// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides configuration management for the batch planner.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults (hardcoded)
// 2. Project Config: ./.batch-planner.yaml (searched upward to root)
// 3. User Config: $HOME/.config/batch-planner/config.yaml
// 4. Environment Variables: PLANNER_*
package config

// Config represents the complete application configuration.
type Config struct {
	Version string        `yaml:"version"`
	Planner PlannerConfig `yaml:"planner"`
	Scanner ScannerConfig `yaml:"scanner"`
	Global  GlobalConfig  `yaml:"global"`
}

// PlannerConfig contains the token thresholds and batch capacity limits
// that drive strategy selection and packing.
type PlannerConfig struct {
	// Files strictly below this count are grouped into combined batches.
	SmallFileMaxTokens int `yaml:"small_file_max_tokens"`
	// Files below this count (and at or above the small threshold) get a
	// dedicated batch. At or above it they are split into chunks.
	MediumFileMaxTokens int `yaml:"medium_file_max_tokens"`

	// Preferred total for a combined batch.
	TargetBatchSize int `yaml:"target_batch_size"`
	// Hard ceiling for any combined batch.
	MaxBatchSize int `yaml:"max_batch_size"`
	// Batches below this are merged or topped up when possible.
	MinBatchSize int `yaml:"min_batch_size"`
	// Upper bound on member files in one combined batch.
	MaxFilesPerBatch int `yaml:"max_files_per_batch"`

	// Preferred token size for a chunk of a split file.
	TargetChunkSize int `yaml:"target_chunk_size"`
	// Tokens of shared context carried between adjacent chunks.
	ChunkOverlapTokens int `yaml:"chunk_overlap_tokens"`
}

// ScannerConfig controls source tree discovery.
type ScannerConfig struct {
	Exclude      []string `yaml:"exclude,omitempty"`
	Extensions   []string `yaml:"extensions,omitempty"`
	MaxFileBytes int64    `yaml:"max_file_bytes,omitempty"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel    string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat   string `yaml:"log_format"` // text, json
	Concurrency int    `yaml:"concurrency"`
	CacheDir    string `yaml:"cache_dir"`
	EnableCache bool   `yaml:"enable_cache"`
}

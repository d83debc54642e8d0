// Package config handles configuration loading and validation
package config

import (
	"fmt"
	"strings"
)

const (
	// MaxConcurrency is the maximum allowed value for Concurrency
	MaxConcurrency = 64
	// MaxFilesPerBatchLimit is the maximum allowed value for MaxFilesPerBatch
	MaxFilesPerBatchLimit = 100
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	// Validate version
	if c.Version == "" {
		return fmt.Errorf("config version is required")
	}

	// Validate planner config
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner config: %w", err)
	}

	// Validate scanner config
	if err := c.Scanner.Validate(); err != nil {
		return fmt.Errorf("scanner config: %w", err)
	}

	// Validate global config
	if err := c.Global.Validate(); err != nil {
		return fmt.Errorf("global config: %w", err)
	}

	return nil
}

// Validate validates the planner thresholds and capacity limits
func (p *PlannerConfig) Validate() error {
	// All thresholds must be positive
	if p.SmallFileMaxTokens <= 0 {
		return fmt.Errorf("small_file_max_tokens must be positive")
	}
	if p.MediumFileMaxTokens <= 0 {
		return fmt.Errorf("medium_file_max_tokens must be positive")
	}
	if p.TargetBatchSize <= 0 {
		return fmt.Errorf("target_batch_size must be positive")
	}
	if p.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	if p.MinBatchSize <= 0 {
		return fmt.Errorf("min_batch_size must be positive")
	}
	if p.TargetChunkSize <= 0 {
		return fmt.Errorf("target_chunk_size must be positive")
	}

	// Threshold ordering
	if p.SmallFileMaxTokens >= p.MediumFileMaxTokens {
		return fmt.Errorf("small_file_max_tokens (%d) must be below medium_file_max_tokens (%d)",
			p.SmallFileMaxTokens, p.MediumFileMaxTokens)
	}

	// Capacity ordering
	if p.MinBatchSize > p.TargetBatchSize {
		return fmt.Errorf("min_batch_size (%d) must not exceed target_batch_size (%d)",
			p.MinBatchSize, p.TargetBatchSize)
	}
	if p.TargetBatchSize > p.MaxBatchSize {
		return fmt.Errorf("target_batch_size (%d) must not exceed max_batch_size (%d)",
			p.TargetBatchSize, p.MaxBatchSize)
	}

	// Member limit
	if p.MaxFilesPerBatch < 1 {
		return fmt.Errorf("max_files_per_batch must be at least 1")
	}
	if p.MaxFilesPerBatch > MaxFilesPerBatchLimit {
		return fmt.Errorf("max_files_per_batch must not exceed %d", MaxFilesPerBatchLimit)
	}

	// Overlap must leave room for chunk content
	if p.ChunkOverlapTokens < 0 {
		return fmt.Errorf("chunk_overlap_tokens must be non-negative")
	}
	if p.ChunkOverlapTokens >= p.TargetChunkSize {
		return fmt.Errorf("chunk_overlap_tokens (%d) must be below target_chunk_size (%d)",
			p.ChunkOverlapTokens, p.TargetChunkSize)
	}

	return nil
}

// Validate validates the scanner configuration
func (s *ScannerConfig) Validate() error {
	if s.MaxFileBytes < 0 {
		return fmt.Errorf("max_file_bytes must be non-negative")
	}
	for _, ext := range s.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Validate validates the global configuration
func (g *GlobalConfig) Validate() error {
	// Validate log level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if g.LogLevel != "" && !validLevels[strings.ToLower(g.LogLevel)] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", g.LogLevel)
	}

	// Validate log format
	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if g.LogFormat != "" && !validFormats[strings.ToLower(g.LogFormat)] {
		return fmt.Errorf("invalid log_format: %s (must be text or json)", g.LogFormat)
	}

	// Validate concurrency
	if g.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if g.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must not exceed %d", MaxConcurrency)
	}

	return nil
}

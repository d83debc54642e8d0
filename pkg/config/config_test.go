// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
)

// TestDefaultConfig tests the default configuration.
func TestDefaultConfig(t *testing.T) {
	cfg := config.Default()

	if cfg.Planner.SmallFileMaxTokens != 15000 {
		t.Errorf("Expected small_file_max_tokens 15000, got %d", cfg.Planner.SmallFileMaxTokens)
	}

	if cfg.Planner.MediumFileMaxTokens != 20000 {
		t.Errorf("Expected medium_file_max_tokens 20000, got %d", cfg.Planner.MediumFileMaxTokens)
	}

	if cfg.Planner.TargetBatchSize != 18000 {
		t.Errorf("Expected target_batch_size 18000, got %d", cfg.Planner.TargetBatchSize)
	}

	if cfg.Planner.MaxBatchSize != 22000 {
		t.Errorf("Expected max_batch_size 22000, got %d", cfg.Planner.MaxBatchSize)
	}

	if cfg.Planner.MinBatchSize != 8000 {
		t.Errorf("Expected min_batch_size 8000, got %d", cfg.Planner.MinBatchSize)
	}

	if cfg.Planner.MaxFilesPerBatch != 12 {
		t.Errorf("Expected max_files_per_batch 12, got %d", cfg.Planner.MaxFilesPerBatch)
	}

	if cfg.Planner.TargetChunkSize != 18000 {
		t.Errorf("Expected target_chunk_size 18000, got %d", cfg.Planner.TargetChunkSize)
	}

	if cfg.Planner.ChunkOverlapTokens != 500 {
		t.Errorf("Expected chunk_overlap_tokens 500, got %d", cfg.Planner.ChunkOverlapTokens)
	}

	if cfg.Global.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", cfg.Global.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

// TestLoad tests loading config from a file.
func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
version: "1.0"

planner:
  small_file_max_tokens: 10000
  medium_file_max_tokens: 25000
  target_batch_size: 20000
  max_batch_size: 24000

global:
  log_level: debug
  concurrency: 8
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Planner.SmallFileMaxTokens != 10000 {
		t.Errorf("Expected small_file_max_tokens 10000, got %d", cfg.Planner.SmallFileMaxTokens)
	}

	if cfg.Planner.MediumFileMaxTokens != 25000 {
		t.Errorf("Expected medium_file_max_tokens 25000, got %d", cfg.Planner.MediumFileMaxTokens)
	}

	if cfg.Global.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.Global.LogLevel)
	}

	if cfg.Global.Concurrency != 8 {
		t.Errorf("Expected concurrency 8, got %d", cfg.Global.Concurrency)
	}

	// Unset fields fall back to defaults
	if cfg.Planner.MinBatchSize != 8000 {
		t.Errorf("Expected default min_batch_size 8000, got %d", cfg.Planner.MinBatchSize)
	}

	if cfg.Planner.ChunkOverlapTokens != 500 {
		t.Errorf("Expected default chunk_overlap_tokens 500, got %d", cfg.Planner.ChunkOverlapTokens)
	}
}

// TestLoadInvalidYAML tests loading a malformed config file.
func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("planner: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := config.Load(configPath)
	if err == nil {
		t.Error("Expected error for malformed YAML, got nil")
	}
}

// TestLoadMissingFile tests loading a nonexistent path.
func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

// TestValidateThresholdOrdering tests the threshold ordering rules.
func TestValidateThresholdOrdering(t *testing.T) {
	cfg := config.Default()
	cfg.Planner.SmallFileMaxTokens = 25000 // above medium

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when small threshold exceeds medium, got nil")
	}
}

// TestValidateCapacityOrdering tests min <= target <= max.
func TestValidateCapacityOrdering(t *testing.T) {
	cfg := config.Default()
	cfg.Planner.TargetBatchSize = 30000 // above max

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when target exceeds max batch size, got nil")
	}

	cfg = config.Default()
	cfg.Planner.MinBatchSize = 19000 // above target

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when min exceeds target batch size, got nil")
	}
}

// TestValidateOverlap tests the chunk overlap bound.
func TestValidateOverlap(t *testing.T) {
	cfg := config.Default()
	cfg.Planner.ChunkOverlapTokens = cfg.Planner.TargetChunkSize

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when overlap reaches chunk size, got nil")
	}
}

// TestValidateLogLevel tests log level validation.
func TestValidateLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Global.LogLevel = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid log level, got nil")
	}
}

// TestLoadWithOverrides tests environment variable overrides.
func TestLoadWithOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("version: \"1.0\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	os.Setenv("PLANNER_LOG_LEVEL", "error")
	os.Setenv("PLANNER_CONCURRENCY", "16")
	defer os.Unsetenv("PLANNER_LOG_LEVEL")
	defer os.Unsetenv("PLANNER_CONCURRENCY")

	cfg, err := config.LoadWithOverrides(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Global.LogLevel != "error" {
		t.Errorf("Expected log level 'error' from env, got '%s'", cfg.Global.LogLevel)
	}

	if cfg.Global.Concurrency != 16 {
		t.Errorf("Expected concurrency 16 from env, got %d", cfg.Global.Concurrency)
	}
}

// TestLoadFromEnvPath tests the BATCH_PLANNER_CONFIG path override.
func TestLoadFromEnvPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	configContent := `
version: "1.0"
global:
  log_level: warn
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	os.Setenv("BATCH_PLANNER_CONFIG", configPath)
	defer os.Unsetenv("BATCH_PLANNER_CONFIG")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Global.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn', got '%s'", cfg.Global.LogLevel)
	}
}

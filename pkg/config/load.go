// Package config handles configuration loading and validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default config file names to search for
var defaultConfigFiles = []string{
	".batch-planner.yaml",
	".batch-planner.yml",
	"batch-planner.yaml",
	"batch-planner.yml",
}

// Load loads configuration from a specific file path
func Load(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read config file: %s", path), err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse config file: %s", path), err)
	}

	// Apply defaults before validating so partial files validate cleanly
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("config validation failed", err)
	}

	return &cfg, nil
}

// LoadDefault searches for and loads configuration from default locations
// Search order:
// 1. Current directory
// 2. Parent directories (up to root)
// 3. User home directory (.config/batch-planner/)
func LoadDefault() (*Config, error) {
	// Check current directory and parents
	if cfg, err := findInParents("."); err == nil {
		return cfg, nil
	}

	// Check user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".config", "batch-planner", "config.yaml")
		if cfg, err := Load(userConfigPath); err == nil {
			return cfg, nil
		}
	}

	// No config found - return default config
	return Default(), nil
}

// LoadFromEnv loads config from environment variable path
// BATCH_PLANNER_CONFIG can override the config file path
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv("BATCH_PLANNER_CONFIG"); path != "" {
		return Load(path)
	}
	return LoadDefault()
}

// findInParents searches for config file in current directory and parent directories
func findInParents(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		for _, filename := range defaultConfigFiles {
			configPath := filepath.Join(dir, filename)
			if _, err := os.Stat(configPath); err == nil {
				return Load(configPath)
			}
		}

		// Move to parent directory
		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			// Reached root
			break
		}
		dir = parentDir
	}

	return nil, errors.ConfigError("no config file found", nil)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Planner: PlannerConfig{
			SmallFileMaxTokens:  15000,
			MediumFileMaxTokens: 20000,
			TargetBatchSize:     18000,
			MaxBatchSize:        22000,
			MinBatchSize:        8000,
			MaxFilesPerBatch:    12,
			TargetChunkSize:     18000,
			ChunkOverlapTokens:  500,
		},
		Scanner: ScannerConfig{
			Exclude: []string{
				"node_modules", "vendor", "dist", "build",
				".git", ".batch-planner-cache",
			},
			Extensions: []string{
				".go", ".py", ".js", ".jsx", ".ts", ".tsx",
				".java", ".rb", ".rs", ".c", ".h", ".cpp", ".cs",
			},
			MaxFileBytes: 4 * 1024 * 1024,
		},
		Global: GlobalConfig{
			LogLevel:    "info",
			LogFormat:   "text",
			Concurrency: 4,
			CacheDir:    ".batch-planner-cache",
			EnableCache: true,
		},
	}
}

// applyDefaults sets default values for optional fields
func applyDefaults(cfg *Config) {
	def := Default()

	// Set default version if not specified
	if cfg.Version == "" {
		cfg.Version = def.Version
	}

	// Planner defaults
	if cfg.Planner.SmallFileMaxTokens == 0 {
		cfg.Planner.SmallFileMaxTokens = def.Planner.SmallFileMaxTokens
	}
	if cfg.Planner.MediumFileMaxTokens == 0 {
		cfg.Planner.MediumFileMaxTokens = def.Planner.MediumFileMaxTokens
	}
	if cfg.Planner.TargetBatchSize == 0 {
		cfg.Planner.TargetBatchSize = def.Planner.TargetBatchSize
	}
	if cfg.Planner.MaxBatchSize == 0 {
		cfg.Planner.MaxBatchSize = def.Planner.MaxBatchSize
	}
	if cfg.Planner.MinBatchSize == 0 {
		cfg.Planner.MinBatchSize = def.Planner.MinBatchSize
	}
	if cfg.Planner.MaxFilesPerBatch == 0 {
		cfg.Planner.MaxFilesPerBatch = def.Planner.MaxFilesPerBatch
	}
	if cfg.Planner.TargetChunkSize == 0 {
		cfg.Planner.TargetChunkSize = def.Planner.TargetChunkSize
	}
	if cfg.Planner.ChunkOverlapTokens == 0 {
		cfg.Planner.ChunkOverlapTokens = def.Planner.ChunkOverlapTokens
	}

	// Scanner defaults
	if len(cfg.Scanner.Exclude) == 0 {
		cfg.Scanner.Exclude = def.Scanner.Exclude
	}
	if len(cfg.Scanner.Extensions) == 0 {
		cfg.Scanner.Extensions = def.Scanner.Extensions
	}
	if cfg.Scanner.MaxFileBytes == 0 {
		cfg.Scanner.MaxFileBytes = def.Scanner.MaxFileBytes
	}

	// Global defaults
	if cfg.Global.LogLevel == "" {
		cfg.Global.LogLevel = def.Global.LogLevel
	}
	if cfg.Global.LogFormat == "" {
		cfg.Global.LogFormat = def.Global.LogFormat
	}
	if cfg.Global.Concurrency == 0 {
		cfg.Global.Concurrency = def.Global.Concurrency
	}
	if cfg.Global.CacheDir == "" {
		cfg.Global.CacheDir = def.Global.CacheDir
	}
}

// LoadWithOverrides loads config and applies environment variable overrides
func LoadWithOverrides(path string) (*Config, error) {
	var cfg *Config
	var err error

	if path != "" {
		cfg, err = Load(path)
	} else {
		cfg, err = LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	// Apply environment overrides
	if val := os.Getenv("PLANNER_LOG_LEVEL"); val != "" {
		cfg.Global.LogLevel = val
	}
	if val := os.Getenv("PLANNER_LOG_FORMAT"); val != "" {
		cfg.Global.LogFormat = val
	}
	if val := os.Getenv("PLANNER_CACHE_DIR"); val != "" {
		cfg.Global.CacheDir = val
	}
	if val := os.Getenv("PLANNER_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.Global.Concurrency = n
		}
	}

	return cfg, nil
}

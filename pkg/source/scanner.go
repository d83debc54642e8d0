// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package source

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/errors"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/observability"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/perf"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

// binarySniffLen is how many leading bytes are checked for NUL when
// deciding whether a file is binary.
const binarySniffLen = 8000

// Scanner discovers source files under a root and turns them into
// analyzed FileRefs with token estimates and structural summaries.
// Results are deterministic: files are ordered by path and indexed in
// that order.
type Scanner struct {
	cfg         config.ScannerConfig
	est         token.Estimator
	logger      observability.Logger
	concurrency int
}

// NewScanner creates a scanner. concurrency bounds parallel file reads.
func NewScanner(cfg config.ScannerConfig, est token.Estimator, logger observability.Logger, concurrency int) *Scanner {
	if logger == nil {
		logger = observability.Nop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scanner{
		cfg:         cfg,
		est:         est,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Scan walks root and returns one FileRef per readable source file.
// Unreadable and binary files are skipped with a log line, never
// failing the scan.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileRef, error) {
	paths, err := s.collectPaths(root)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	type scanResult struct {
		ref  FileRef
		skip bool
	}

	results, err := perf.Map(ctx, paths, func(path string) (scanResult, error) {
		if err := ctx.Err(); err != nil {
			return scanResult{}, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file",
				observability.String("path", path),
				observability.Err(err))
			return scanResult{skip: true}, nil
		}

		if isBinary(data) {
			s.logger.Debug("skipping binary file", observability.String("path", path))
			return scanResult{skip: true}, nil
		}

		content := string(data)
		ref := FileRef{
			Path:      path,
			Estimate:  s.est.Estimate(path, content),
			SizeBytes: int64(len(data)),
			Language:  token.LanguageForPath(path),
			LineCount: countLines(content),
			Summary:   Summarize(path, content),
		}
		return scanResult{ref: ref}, nil
	}, s.concurrency)
	if err != nil {
		return nil, err
	}

	refs := make([]FileRef, 0, len(results))
	for _, r := range results {
		if r.skip {
			continue
		}
		r.ref.OriginalIndex = len(refs)
		refs = append(refs, r.ref)
	}

	s.logger.Info("scan complete",
		observability.String("root", root),
		observability.Int("files", len(refs)),
		observability.Int("skipped", len(results)-len(refs)))

	return refs, nil
}

// collectPaths walks the tree applying directory and file filters.
func (s *Scanner) collectPaths(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.ReadError(fmt.Sprintf("cannot scan root: %s", root), err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if s.excluded(name) || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.excluded(name) {
			return nil
		}
		if !s.extensionAllowed(name) {
			return nil
		}
		if s.cfg.MaxFileBytes > 0 {
			if fi, err := d.Info(); err == nil && fi.Size() > s.cfg.MaxFileBytes {
				s.logger.Debug("skipping oversized file",
					observability.String("path", path),
					observability.Int("size_bytes", int(fi.Size())))
				return nil
			}
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, errors.ReadError(fmt.Sprintf("walk failed under: %s", root), err)
	}

	return paths, nil
}

// excluded matches a single path segment against the exclude list.
// Entries may be exact names or glob patterns.
func (s *Scanner) excluded(name string) bool {
	for _, pattern := range s.cfg.Exclude {
		if name == pattern {
			return true
		}
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

func (s *Scanner) extensionAllowed(name string) bool {
	if len(s.cfg.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.cfg.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func isBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

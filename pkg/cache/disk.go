// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache is a disk-based cache storing one JSON file per key.
type DiskCache struct {
	path string
}

// NewDiskCache creates a disk cache rooted at path. The directory is
// created on first write.
func NewDiskCache(path string) *DiskCache {
	return &DiskCache{path: path}
}

// Get retrieves a value from disk cache.
func (d *DiskCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(d.entryPath(key))
	if err != nil {
		return nil, ErrCacheMiss
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry, drop it
		_ = os.Remove(d.entryPath(key))
		return nil, ErrCacheMiss
	}

	if entry.Expired() {
		_ = os.Remove(d.entryPath(key))
		return nil, ErrCacheMiss
	}

	return entry.Value, nil
}

// Set stores a value in disk cache. The entry is written to a temp file
// and renamed so readers never see a partial write.
func (d *DiskCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := os.MkdirAll(d.path, 0755); err != nil {
		return &CacheError{Code: fmt.Sprintf("CACHE_DIR: %v", err)}
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	entry := Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return &CacheError{Code: fmt.Sprintf("CACHE_ENCODE: %v", err)}
	}

	target := d.entryPath(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &CacheError{Code: fmt.Sprintf("CACHE_WRITE: %v", err)}
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return &CacheError{Code: fmt.Sprintf("CACHE_WRITE: %v", err)}
	}
	return nil
}

// Delete removes a value from disk cache.
func (d *DiskCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(d.entryPath(key))
	if err != nil && !os.IsNotExist(err) {
		return &CacheError{Code: fmt.Sprintf("CACHE_DELETE: %v", err)}
	}
	return nil
}

// Clear removes all entries from disk cache.
func (d *DiskCache) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &CacheError{Code: fmt.Sprintf("CACHE_CLEAR: %v", err)}
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		_ = os.Remove(filepath.Join(d.path, e.Name()))
	}
	return nil
}

// entryPath maps a key to a file name. Keys contain ":" separators
// which are not portable in file names.
func (d *DiskCache) entryPath(key string) string {
	name := strings.ReplaceAll(key, ":", "_")
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return filepath.Join(d.path, name+".json")
}

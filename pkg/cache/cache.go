// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package cache provides caching for token estimates and file summaries.
package cache

import (
	"context"
	"time"
)

// Cache is the cache interface shared by the memory and disk backends.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Entry represents a cache entry.
type Entry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL.
func (e *Entry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// CacheError represents a cache error.
type CacheError struct {
	Code string
}

func (e *CacheError) Error() string {
	return e.Code
}

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = &CacheError{Code: "CACHE_MISS"}

// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the memory cache when no limit is given.
const DefaultMaxEntries = 4096

// MemoryCache is an in-memory cache with LRU eviction.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	lru        *list.List
	maxEntries int
}

// NewMemoryCache creates a memory cache holding at most maxEntries items.
// maxEntries <= 0 selects DefaultMaxEntries.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache{
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
	}
}

// Get retrieves a value from cache.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	entry := elem.Value.(*Entry)
	if entry.Expired() {
		m.removeElement(elem)
		return nil, ErrCacheMiss
	}

	m.lru.MoveToFront(elem)
	return entry.Value, nil
}

// Set stores a value in cache. A ttl of zero means no expiry.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	entry := &Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt,
	}

	if elem, ok := m.items[key]; ok {
		elem.Value = entry
		m.lru.MoveToFront(elem)
		return nil
	}

	elem := m.lru.PushFront(entry)
	m.items[key] = elem

	if m.lru.Len() > m.maxEntries {
		m.evictOldest()
	}
	return nil
}

// Delete removes a value from cache.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.removeElement(elem)
	}
	return nil
}

// Clear removes all entries from cache.
func (m *MemoryCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]*list.Element)
	m.lru.Init()
	return nil
}

// Len returns the number of entries currently held.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *MemoryCache) removeElement(elem *list.Element) {
	m.lru.Remove(elem)
	entry := elem.Value.(*Entry)
	delete(m.items, entry.Key)
}

func (m *MemoryCache) evictOldest() {
	if elem := m.lru.Back(); elem != nil {
		m.removeElement(elem)
	}
}

// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package token

import (
	"context"
	"encoding/json"
	"time"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/cache"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/observability"
)

// DefaultEstimateTTL is how long cached estimates stay valid. Keys are
// content-addressed, so the TTL only bounds cache growth.
const DefaultEstimateTTL = 7 * 24 * time.Hour

// CachingEstimator wraps an Estimator with a content-addressed cache.
// Unchanged files reuse their previous estimate across runs.
type CachingEstimator struct {
	inner   Estimator
	cache   cache.Cache
	keys    *cache.KeyGenerator
	ttl     time.Duration
	metrics *observability.MetricsCollector
}

// NewCachingEstimator wraps inner with the given cache backend.
// metrics may be nil.
func NewCachingEstimator(inner Estimator, backend cache.Cache, metrics *observability.MetricsCollector) *CachingEstimator {
	return &CachingEstimator{
		inner:   inner,
		cache:   backend,
		keys:    cache.NewKeyGenerator(),
		ttl:     DefaultEstimateTTL,
		metrics: metrics,
	}
}

// Estimate returns the cached estimate for this exact content when
// available, otherwise delegates to the wrapped estimator and stores the
// result. Cache failures fall through to the wrapped estimator.
func (c *CachingEstimator) Estimate(path, content string) Estimate {
	ctx := context.Background()
	key := c.keys.ForContent(path, content)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var est Estimate
		if err := json.Unmarshal(data, &est); err == nil {
			if est.Metadata == nil {
				est.Metadata = &Metadata{SourcePath: path}
			}
			est.Metadata.FromCache = true
			c.recordHit(true)
			return est
		}
	}
	c.recordHit(false)

	est := c.inner.Estimate(path, content)

	if data, err := json.Marshal(est); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}

	return est
}

func (c *CachingEstimator) recordHit(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheHit(hit)
	}
}

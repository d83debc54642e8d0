// Package perf provides concurrency helpers for fan-out work
package perf

import (
	"context"
	"fmt"
	"sync"
)

// Map applies fn to every item concurrently and returns the results in
// input order. The first error cancels remaining work. Concurrency bounds
// the number of in-flight calls.
func Map[T, R any](ctx context.Context, items []T, fn func(T) (R, error), concurrency int) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		idx int
		val R
		err error
	}

	// Buffer holds every possible result so senders never block,
	// which lets the collector return early without leaking goroutines.
	resultCh := make(chan outcome, len(items))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			val, err := fn(it)
			resultCh <- outcome{idx: idx, val: val, err: err}
			if err != nil {
				// Stop scheduling the rest of the slice
				cancel()
			}
		}(i, item)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	received := 0
	for res := range resultCh {
		if res.err != nil {
			return nil, fmt.Errorf("error at index %d: %w", res.idx, res.err)
		}
		results[res.idx] = res.val
		received++
	}

	// A short count means workers bailed out before running fn,
	// which only happens when the parent context was cancelled.
	if received != len(items) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("map aborted after %d of %d items", received, len(items))
	}

	return results, nil
}

// RateLimiter bounds the number of concurrent operations.
type RateLimiter struct {
	sem   chan struct{}
	close chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewRateLimiter creates a limiter allowing maxConcurrent operations at once.
func NewRateLimiter(maxConcurrent int) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		sem:   make(chan struct{}, maxConcurrent),
		close: make(chan struct{}),
	}
}

// Do runs fn once a slot is available. The context cancels the wait.
func (r *RateLimiter) Do(ctx context.Context, fn func() error) error {
	select {
	case r.sem <- struct{}{}:
		r.wg.Add(1)
		defer func() {
			<-r.sem
			r.wg.Done()
		}()
		return fn()
	case <-r.close:
		return fmt.Errorf("rate limiter is closed")
	case <-ctx.Done():
		return fmt.Errorf("rate limiter: %w", ctx.Err())
	}
}

// Close rejects new operations and waits for active ones to finish.
// Safe to call multiple times.
func (r *RateLimiter) Close() error {
	r.once.Do(func() {
		close(r.close)
	})
	r.wg.Wait()
	return nil
}

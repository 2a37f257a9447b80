// Package parallel provides a bounded, data-parallel map over an indexed
// slice of inputs, each task owning its own slice of work, with
// deterministic index-preserving output order and fail-fast error
// propagation (a failure in one task fails the whole call).
//
// It is built on golang.org/x/sync/errgroup rather than a hand-rolled
// channel pool, which keeps cancellation and bounded concurrency correct
// without reimplementing either.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map runs fn over every item in items concurrently, bounded to limit
// simultaneous goroutines (0 means unbounded). The result slice preserves
// input order regardless of completion order. If any fn call returns an
// error, Map cancels the remaining work and returns that error.
func Map[T any, R any](ctx context.Context, limit int, items []T, fn func(i int, item T) (R, error)) ([]R, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r, err := fn(i, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

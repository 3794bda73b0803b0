package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MapBounded runs fn over items with at most concurrency invocations in
// flight, returning results in input order regardless of completion order.
//
// A single fn failure aborts the whole batch and cancels the contexts of the
// remaining invocations. Callers that want per-item failure tolerance wrap
// fn in their own failure boundary, as the orchestrator does for the
// per-subscriber enrichment steps.
func MapBounded[T, R any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, idx int, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			// Each goroutine writes a distinct index; no further
			// synchronization is needed.
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

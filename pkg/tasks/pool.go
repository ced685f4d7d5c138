package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every item with at most limit calls in flight. Every item
// is processed even after a failure; the first error is returned once all
// calls have finished. A limit below one means one.
func Run[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) error {
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, item := range items {
		g.Go(func() error {
			return fn(ctx, item)
		})
	}
	return g.Wait()
}

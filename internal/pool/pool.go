// Package pool runs a transform over independent work items with bounded
// parallelism. Results are delivered in completion order on a channel that
// a single coordinator drains; workers share nothing mutable with each
// other or the coordinator beyond their own item and returned outcomes.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/halolab/seisbatch/internal/run"
)

// Func processes one item (a unit or a whole batch) and returns its
// outcomes. Implementations must catch their own per-unit errors and
// convert them to failed outcomes; an error escaping Func (as a panic) is
// converted by the pool into a single failed outcome for the item, never a
// crashed run.
type Func[T any] func(ctx context.Context, item T) []run.Outcome

// Map submits every item up front and executes fn over them with at most
// workers in flight. The returned channel yields outcome slices as items
// complete — completion order, not submission order — and is closed once
// all items are done. Cancellation is cooperative: pending items are still
// delivered as outcomes by fn observing ctx.
//
// The pool never retries; retries, where they exist, belong to the
// individual processor.
func Map[T any](ctx context.Context, workers int, items []T, ident func(T) string, fn Func[T]) <-chan []run.Outcome {
	if workers < 1 {
		workers = 1
	}

	out := make(chan []run.Outcome, workers)

	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		for _, item := range items {
			item := item
			g.Go(func() error {
				out <- guarded(ctx, item, ident, fn)
				return nil
			})
		}
		g.Wait()
		close(out)
	}()

	return out
}

// guarded invokes fn with panic isolation: a panicking transform yields one
// failed outcome naming the item instead of taking down the run.
func guarded[T any](ctx context.Context, item T, ident func(T) string, fn Func[T]) (outcomes []run.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcomes = []run.Outcome{
				run.Failf(ident(item), "processor panic: %v", r),
			}
		}
	}()
	return fn(ctx, item)
}

// Idents is a convenience ident for string items.
func Idents(s string) string { return s }

// BatchIdent names a batch by its first and last unit for diagnostics.
func BatchIdent(batch []string) string {
	switch len(batch) {
	case 0:
		return "empty batch"
	case 1:
		return batch[0]
	default:
		return fmt.Sprintf("%s .. %s (%d units)", batch[0], batch[len(batch)-1], len(batch))
	}
}

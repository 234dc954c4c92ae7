// Package fanout implements the bounded fan-out pattern shared by search
// aggregation and health probing: run N independent tasks concurrently,
// wait for all of them or for the context deadline, and fold outcomes in
// submission order.
package fanout

import "context"

// Result holds the outcome of one task.
type Result[T any] struct {
	Value T
	Err   error
}

type indexed[T any] struct {
	i      int
	result Result[T]
}

// Collect runs task(i) for i in [0, n) concurrently and returns one
// Result per slot, in submission order. When the context expires before
// a task finishes, that slot reports the context error and anything the
// task produces afterwards is discarded. Collect never returns early on
// individual task failures; a task error is data, not a reason to stop
// siblings.
func Collect[T any](ctx context.Context, n int, task func(ctx context.Context, i int) (T, error)) []Result[T] {
	results := make([]Result[T], n)
	if n == 0 {
		return results
	}

	// Buffered so late tasks can always deliver and exit after the
	// collector has given up on them.
	ch := make(chan indexed[T], n)

	for i := 0; i < n; i++ {
		go func(i int) {
			value, err := task(ctx, i)
			ch <- indexed[T]{i: i, result: Result[T]{Value: value, Err: err}}
		}(i)
	}

	filled := make([]bool, n)
	remaining := n
	for remaining > 0 {
		select {
		case r := <-ch:
			results[r.i] = r.result
			filled[r.i] = true
			remaining--
		case <-ctx.Done():
			// Tasks that finished before the deadline but have not
			// been read yet still count; everything else is expired.
			for remaining > 0 {
				select {
				case r := <-ch:
					results[r.i] = r.result
					filled[r.i] = true
					remaining--
				default:
					remaining = 0
				}
			}
			for i := range results {
				if !filled[i] {
					results[i] = Result[T]{Err: ctx.Err()}
				}
			}
			return results
		}
	}

	return results
}

package util

import (
	"context"
	"errors"
	"sync"
)

// Parallel runs fn for every input on at most workers goroutines and returns
// all failures joined. One failing input does not stop the others; a
// cancelled ctx stops feeding new inputs.
func Parallel[T any](ctx context.Context, inputs []T, workers int, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	workers = max(1, min(workers, len(inputs)))

	tasks := make(chan T)
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if err := fn(ctx, item); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}

	stopped := ctx.Err()
	for _, item := range inputs {
		if stopped != nil {
			break
		}
		select {
		case <-ctx.Done():
			stopped = ctx.Err()
		case tasks <- item:
		}
	}
	close(tasks)
	wg.Wait()

	if stopped != nil {
		errs = append(errs, stopped)
	}

	return errors.Join(errs...)
}

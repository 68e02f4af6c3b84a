package pipeline

import (
	"context"
	"sync"
)

// runIndexed fans the index range [0, total) out to a worker pool. Workers
// write results by index into caller-owned slices, so parallelism never
// affects output ordering or values.
func runIndexed(ctx context.Context, workers, total int, fn func(idx int)) error {
	if total == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 4
	}

	indexCh := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				fn(idx)
			}
		}()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()

	return ctx.Err()
}

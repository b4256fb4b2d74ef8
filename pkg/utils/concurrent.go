package utils

import (
	"context"
	"sync"
)

// Worker handles one item of a pool run.
type Worker[T any, R any] func(ctx context.Context, item T) (R, error)

// WorkerPool fans a slice of items out to a fixed number of goroutines and
// collects one result and one error per item, in input order. A panicking
// item yields a *PanicError in its error slot and does not stop the others.
type WorkerPool[T any, R any] struct {
	numWorkers int
	worker     Worker[T, R]
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool[T any, R any](numWorkers int, worker Worker[T, R]) *WorkerPool[T, R] {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers()
	}
	return &WorkerPool[T, R]{
		numWorkers: numWorkers,
		worker:     worker,
	}
}

// ProcessItems processes items using the worker pool.
// Panics in worker goroutines are recovered and converted to PanicError.
// Items not yet started when ctx is cancelled report ctx.Err().
func (wp *WorkerPool[T, R]) ProcessItems(ctx context.Context, items []T) ([]R, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	type indexed struct {
		item  T
		index int
	}

	itemsChan := make(chan indexed, len(items))
	for i, item := range items {
		itemsChan <- indexed{item: item, index: i}
	}
	close(itemsChan)

	results := make([]R, len(items))
	errs := make([]error, len(items))
	started := make([]bool, len(items))
	var wg sync.WaitGroup

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case it, ok := <-itemsChan:
					if !ok {
						return
					}
					started[it.index] = true
					func() {
						defer RecoverWithCallback(func(err error) {
							errs[it.index] = err
						})
						results[it.index], errs[it.index] = wp.worker(ctx, it.item)
					}()
				}
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		for i := range items {
			if !started[i] {
				errs[i] = ctx.Err()
			}
		}
	}
	return results, errs
}

// Batch splits items into consecutive batches of at most batchSize elements.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

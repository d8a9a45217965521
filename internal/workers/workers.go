// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package workers runs data-parallel loops over index ranges.
package workers

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// Threshold is the minimum range length split across goroutines.
// Below this, a single chunk on the calling goroutine is faster.
const Threshold = 64

// ErrFault reports a panic raised inside a worker.
var ErrFault = errors.New("workers: execution fault")

// Count returns n if positive, otherwise GOMAXPROCS.
func Count(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// For splits [0, n) into at most workers contiguous chunks and calls fn once
// per chunk, each in its own goroutine. It returns after every chunk is done.
// A panic in fn is recovered and reported as ErrFault.
func For(n, workers int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}
	workers = Count(workers)
	if n < Threshold || workers == 1 {
		return run(0, n, fn)
	}

	chunkSize := (n + workers - 1) / workers
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := range workers {
		lo := w * chunkSize
		hi := min(lo+chunkSize, n)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[w] = run(lo, hi, fn)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func run(lo, hi int, fn func(lo, hi int)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: chunk [%d %d): %v", ErrFault, lo, hi, r)
		}
	}()
	fn(lo, hi)
	return nil
}

// Package parallel provides helpers for fanning index ranges out across
// goroutines. Callers receive contiguous [start, end) blocks and must not
// share mutable state between blocks.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, n) into one contiguous block per available CPU and
// runs fn on each block concurrently, waiting for all blocks to finish.
func Parallelize(n int, fn func(start, end int)) {
	ParallelizeWithWorkers(n, runtime.NumCPU(), fn)
}

// ParallelizeWithWorkers is Parallelize with an explicit worker count.
// workers <= 1 runs fn(0, n) on the calling goroutine.
func ParallelizeWithWorkers(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, n) sequentially when n is below
// threshold, avoiding goroutine overhead on small inputs.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		if n > 0 {
			fn(0, n)
		}
		return
	}
	Parallelize(n, fn)
}

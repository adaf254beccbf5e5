// Package parallel provides the bounded fork-join regions the step operators
// and diagnostics open over the grid-index range. Every call partitions the
// range into disjoint chunks, runs them on their own goroutines, and rejoins
// before returning; nothing here is asynchronous.
package parallel

import (
	"runtime"
	"sync"
)

// Workers returns the number of chunks a fork-join region is split into.
func Workers() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// For runs body over disjoint sub-ranges [lo,hi) covering [0,n) and returns
// once all of them have finished.
func For(n int, body func(lo, hi int)) {
	ForWorker(n, func(_, lo, hi int) { body(lo, hi) })
}

// ForWorker is For with the worker index exposed, so callers can accumulate
// thread-local partial reductions indexed by worker and combine them in an
// ordered second phase after the join.
func ForWorker(n int, body func(worker, lo, hi int)) {
	if n <= 0 {
		return
	}
	w := Workers()
	if w > n {
		w = n
	}
	if w == 1 {
		body(0, 0, n)
		return
	}

	chunk := n / w
	rem := n % w

	var wg sync.WaitGroup
	lo := 0
	for i := 0; i < w; i++ {
		hi := lo + chunk
		if i < rem {
			hi++
		}
		wg.Add(1)
		go func(worker, lo, hi int) {
			defer wg.Done()
			body(worker, lo, hi)
		}(i, lo, hi)
		lo = hi
	}
	wg.Wait()
}

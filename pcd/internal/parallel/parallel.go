package parallel

import (
	"golang.org/x/sync/errgroup"
)

// For splits [0, n) into contiguous chunks processed by up to threads goroutines.
// The first error returned by fn is returned.
func For(n, threads int, fn func(lo, hi int) error) error {
	if n == 0 {
		return nil
	}
	if threads < 1 {
		threads = 1
	}
	if threads > n {
		threads = n
	}
	chunk := (n + threads - 1) / threads
	var g errgroup.Group
	g.SetLimit(threads)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

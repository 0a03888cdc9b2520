// Package parallel splits host loops over goroutines for the CPU backend.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `yaml:"enabled"`        // Whether parallel execution is enabled.
	NumWorkers   int  `yaml:"num_workers"`    // Maximum number of concurrent goroutines.
	MinChunkSize int  `yaml:"min_chunk_size"` // Minimum elements per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	Range(n, 1, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}

// Range splits [0, n) into contiguous chunks and calls f(start, end) for each. cost is
// the number of elements one index stands for (the row length when iterating rows) and
// keeps chunks above MinChunkSize elements. Range returns once every chunk is done.
func Range(n, cost int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	cost = max(cost, 1)
	workers := max(cfg.NumWorkers, 1)
	if !cfg.Enabled || workers == 1 || n < 2 || n*cost < 2*cfg.MinChunkSize {
		// Sequential fallback.
		f(0, n)
		return
	}

	minIndices := (cfg.MinChunkSize + cost - 1) / cost
	chunk := max((n+workers-1)/workers, minIndices, 1)

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			f(start, end)
			return nil
		})
	}
	_ = g.Wait() // chunks never fail
}

// Package dispatch fans independent per-file tasks out over a bounded set of
// goroutines and gathers their results.
package dispatch

import (
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds how many tasks run at once. The zero value is not usable; use
// New.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// New returns a Pool running at most workers tasks concurrently. A
// non-positive count means one worker per CPU.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers: workers,
		logger:  slog.Default().With("component", "dispatch"),
	}
}

func (p *Pool) Workers() int { return p.workers }

// Map runs fn once per item and returns the results in item order. Tasks do
// not share state and one task failing never stops the others: a panicking
// task is logged and leaves the zero value in its slot. Map returns only
// after every task has finished.
func Map[T, R any](p *Pool, items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(min(p.workers, len(items)))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("task panicked", "index", i, "panic", fmt.Sprint(r))
				}
			}()
			out[i] = fn(item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

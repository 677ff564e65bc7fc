// Package runner executes independent conversation runs concurrently
// under a bounded worker pool. Each run gets its own state.RunState;
// nothing is shared across runs except the read-only/thread-safe
// adapters in stage.Deps.
package runner

import (
	"context"
	"sync"

	"github.com/pocketomega/support-agent/internal/stage"
	"github.com/pocketomega/support-agent/internal/state"
)

// Pool runs conversations with a fixed maximum concurrency. It holds no
// per-run state itself — every call to Run builds a fresh RunState.
type Pool struct {
	deps        *stage.Deps
	parallelism int
}

// NewPool builds a Pool bound to deps with the given parallelism. A
// parallelism of 0 or less is treated as 1.
func NewPool(deps *stage.Deps, parallelism int) *Pool {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Pool{deps: deps, parallelism: parallelism}
}

// RunAll executes one run per conversation ID, blocking until every run
// completes, and returns the resulting RunState for each in input order.
// No more than p.parallelism runs execute at once.
func (p *Pool) RunAll(ctx context.Context, conversationIDs []string) []*state.RunState {
	results := make([]*state.RunState, len(conversationIDs))
	sem := make(chan struct{}, p.parallelism)
	var wg sync.WaitGroup

	for i, id := range conversationIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = stage.Run(ctx, p.deps, id)
		}(i, id)
	}

	wg.Wait()
	return results
}

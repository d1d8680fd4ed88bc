package sim

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Factory builds an independent simulator for one seed. Simulators returned
// by a factory must not share an Arena, integrator or controller state.
type Factory func(seed int64) (*Simulator, error)

// Ensemble runs the same scenario over consecutive seeds in parallel.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart, workers: runtime.NumCPU()}
}

// SetWorkers bounds the number of runs in flight. Values below 1 mean one.
func (e *Ensemble) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Run returns one result per seed, in seed order. A failed run does not
// cancel the others; the lowest-seed error is returned after all finish.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)
	semaphore := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			seed := e.seedStart + int64(idx)
			sim, err := e.factory(seed)
			if err != nil {
				errs[idx] = fmt.Errorf("seed %d: %w", seed, err)
				return
			}

			cfgCopy := cfg
			cfgCopy.Seed = seed
			results[idx], errs[idx] = sim.Run(ctx, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

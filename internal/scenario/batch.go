package scenario

import (
	"context"
	"sync"
)

// Batch runs independent scenarios concurrently. Each scenario drives its
// own page, so runs share no knob state.
type Batch struct {
	scenarios []*Scenario
	workers   int
}

// NewBatch prepares a batch. workers <= 0 runs every scenario at once.
func NewBatch(scenarios []*Scenario, workers int) *Batch {
	if workers <= 0 || workers > len(scenarios) {
		workers = len(scenarios)
	}
	return &Batch{scenarios: scenarios, workers: workers}
}

// Run returns one result and one error per scenario, in input order. A
// failing scenario does not stop the others.
func (b *Batch) Run(ctx context.Context) ([]*Result, []error) {
	results := make([]*Result, len(b.scenarios))
	errs := make([]error, len(b.scenarios))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = Run(ctx, b.scenarios[idx], Options{})
			}
		}()
	}
	for i := range b.scenarios {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results, errs
}

package scenario

import (
	"context"
	"sync"

	"github.com/san-kum/rigidsim/internal/config"
)

// Ensemble runs the same scenario several times in parallel with
// consecutive seeds. Metrics are stateful, so each run gets a fresh set
// from the factory.
type Ensemble struct {
	scn           Scenario
	numRuns       int
	seedStart     int64
	metricFactory func() []Metric
}

func NewEnsemble(scn Scenario, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{scn: scn, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) SetMetricFactory(fn func() []Metric) {
	e.metricFactory = fn
}

func (e *Ensemble) Run(ctx context.Context, cfg *config.Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := *cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			r := New(e.scn)
			if e.metricFactory != nil {
				for _, m := range e.metricFactory() {
					r.AddMetric(m)
				}
			}

			results[idx], errs[idx] = r.Run(ctx, &cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

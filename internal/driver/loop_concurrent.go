package driver

import (
	"context"
	"sync"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
)

// activeWorker tracks one in-flight worker subprocess for the
// concurrent loop's active-table.
type activeWorker struct {
	slug string
	done chan struct{}
}

// runConcurrent is the concurrency=K>1 loop: a table of active workers
// keyed by slug, with a semaphore capping how many run at once.
// Planning rounds only run while the active table is empty.
func (d *Driver) runConcurrent(ctx context.Context) (int, error) {
	sem := d.concurrencySemaphore()

	var mu sync.Mutex
	active := map[string]*activeWorker{}
	var wg sync.WaitGroup

	consecutivePlanning := 0

	drain := func() {
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(d.cfg.DrainTimeout):
			d.logf("drain timeout exceeded, abandoning remaining workers")
		}
	}

	for {
		if restarted, err := d.checkRestart(); err != nil {
			d.logf("checking restart marker failed", "error", err)
		} else if restarted {
			drain()
			return RestartExitCode, nil
		}

		if d.shuttingDown() {
			drain()
			if err := d.finalize(types.WalkStopped, "signal"); err != nil {
				return 1, err
			}
			return 0, nil
		}

		mu.Lock()
		numActive := len(active)
		mu.Unlock()

		if numActive == 0 {
			ready, err := d.store.ReadyIssues()
			if err != nil {
				return 1, err
			}
			if d.shouldPlanNow() && len(ready) > 0 {
				if _, err := d.runPlanningRound(ctx); err != nil {
					return 1, err
				}
				ready, err = d.store.ReadyIssues()
				if err != nil {
					return 1, err
				}
			}
			if len(ready) == 0 {
				consecutivePlanning++
				if consecutivePlanning > d.cfg.MaxPlanningRounds {
					if err := d.finalize(types.WalkStalled, "no ready work after repeated planning rounds"); err != nil {
						return 1, err
					}
					return 0, nil
				}
				result, err := d.runPlanningRound(ctx)
				if err != nil {
					return 1, err
				}
				if result.ShouldFinalize {
					return 0, nil
				}
				if result.NewIssuesCount > 0 {
					consecutivePlanning = 0
				}
				d.sleep(ctx)
				continue
			}
			consecutivePlanning = 0
		}

		ready, err := d.store.ReadyIssues()
		if err != nil {
			return 1, err
		}

		mu.Lock()
		var toSpawn []string
		for _, issue := range ready {
			if _, busy := active[issue.Slug]; busy {
				continue
			}
			toSpawn = append(toSpawn, issue.Slug)
		}
		mu.Unlock()

		for _, slug := range toSpawn {
			if !sem.TryAcquire(1) {
				break
			}
			doneCh := make(chan struct{})
			mu.Lock()
			active[slug] = &activeWorker{slug: slug, done: doneCh}
			mu.Unlock()

			wg.Add(1)
			go func(slug string) {
				defer wg.Done()
				defer sem.Release(1)
				defer close(doneCh)
				defer func() {
					mu.Lock()
					delete(active, slug)
					mu.Unlock()
				}()
				d.workIssue(ctx, slug)
			}(slug)
		}

		d.sleep(ctx)
	}
}

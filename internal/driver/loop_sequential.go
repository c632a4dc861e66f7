package driver

import (
	"context"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
)

// runSequential is the concurrency=1 loop: one issue worked at a time,
// planning rounds run only between issues.
func (d *Driver) runSequential(ctx context.Context) (int, error) {
	consecutivePlanning := 0

	for {
		if restarted, err := d.checkRestart(); err != nil {
			d.logf("checking restart marker failed", "error", err)
		} else if restarted {
			return RestartExitCode, nil
		}

		if d.shuttingDown() {
			if err := d.finalize(types.WalkStopped, "signal"); err != nil {
				return 1, err
			}
			return 0, nil
		}

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
		d.workIssue(ctx, ready[0].Slug)
		d.sleep(ctx)
	}
}

func (d *Driver) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-d.shutdown:
	case <-time.After(d.cfg.PollInterval):
	}
}

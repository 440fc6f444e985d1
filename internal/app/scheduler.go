package app

import (
	"context"
	"time"
)

// StartSnapshotScheduler launches the background goroutine that saves a
// portfolio snapshot once per configured interval. One snapshot is saved
// immediately on startup so a fresh install has a data point.
func (a *App) StartSnapshotScheduler() {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Snapshot scheduler disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	interval := a.Config.Scheduler.GetInterval()
	a.Logger.Info().Dur("interval", interval).Msg("Starting snapshot scheduler")

	go a.runSnapshotScheduler(ctx, interval)
}

func (a *App) runSnapshotScheduler(ctx context.Context, interval time.Duration) {
	a.saveSnapshot(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Logger.Debug().Msg("Snapshot scheduler stopped")
			return
		case <-ticker.C:
			a.saveSnapshot(ctx)
		}
	}
}

func (a *App) saveSnapshot(ctx context.Context) {
	saveCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := a.ValuationService.SaveSnapshot(saveCtx, time.Now()); err != nil {
		a.Logger.Error().Err(err).Msg("Scheduled snapshot save failed")
	}
}

package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleaner is the slice of the game service the worker drives.
type Cleaner interface {
	Cleanup(ctx context.Context, finishedTTL, inviteTTL time.Duration) (int, error)
}

type Worker struct {
	cleaner     Cleaner
	interval    time.Duration
	finishedTTL time.Duration
	inviteTTL   time.Duration
	log         *zap.SugaredLogger
}

func NewWorker(cleaner Cleaner, interval, finishedTTL, inviteTTL time.Duration, log *zap.SugaredLogger) *Worker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Worker{
		cleaner:     cleaner,
		interval:    interval,
		finishedTTL: finishedTTL,
		inviteTTL:   inviteTTL,
		log:         log,
	}
}

// Start runs one cleanup right away, then one per interval until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("[CLEANUP] Background worker started")
	w.runCleanup(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("[CLEANUP] Background worker stopped")
			return
		case <-ticker.C:
			w.runCleanup(ctx)
		}
	}
}

func (w *Worker) runCleanup(ctx context.Context) {
	removed, err := w.cleaner.Cleanup(ctx, w.finishedTTL, w.inviteTTL)
	if err != nil {
		w.log.Errorf("[CLEANUP] Error cleaning up game sessions: %v", err)
		return
	}
	if removed > 0 {
		w.log.Infof("[CLEANUP] Removed %d stale game sessions", removed)
	}
}

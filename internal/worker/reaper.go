package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"edulift.app/membership/common/logger"
	"edulift.app/membership/internal/service"
)

// ReaperLoop runs the expiry sweep on a fixed interval, once at start-up and
// then on every tick. A failed sweep is logged and retried on the next tick.
type ReaperLoop struct {
	reaper   service.ExpiryReaper
	interval time.Duration

	started   atomic.Bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReaperLoop(reaper service.ExpiryReaper, interval time.Duration) *ReaperLoop {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReaperLoop{
		reaper:    reaper,
		interval:  interval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until ctx is done or Stop is called. Only the first call runs.
func (l *ReaperLoop) Run(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "membership.worker.reaper"})
	defer close(l.stoppedCh)

	select {
	case <-l.stopCh:
		return
	default:
	}

	slog.InfoContext(ctx, "expiry reaper started", "interval", l.interval)
	l.sweep(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			slog.InfoContext(ctx, "expiry reaper stopping")
			return
		case <-ticker.C:
			l.sweep(ctx)
		}
	}
}

// Stop is safe to call more than once, and before Run.
func (l *ReaperLoop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if l.started.Load() {
		<-l.stoppedCh
	}
}

func (l *ReaperLoop) sweep(ctx context.Context) {
	if _, err := l.reaper.RunExpirySweep(ctx); err != nil {
		slog.ErrorContext(ctx, "expiry sweep failed", "error", err)
	}
}

package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outmentor/contract"
)

// IdleReaperWorker ends subscriptions that saw no delivery nor heartbeat within maxIdle.
type IdleReaperWorker struct {
	log      *slog.Logger
	hub      contract.IHub
	maxIdle  time.Duration
	interval time.Duration
}

func NewIdleReaperWorker(log *slog.Logger, hub contract.IHub, maxIdle time.Duration) *IdleReaperWorker {
	interval := maxIdle / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return &IdleReaperWorker{log: log, hub: hub, maxIdle: maxIdle, interval: interval}
}

func (w *IdleReaperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := w.hub.ReapIdle(w.maxIdle); n > 0 {
				w.log.Info(fmt.Sprintf("%d idle subscriptions ended", n))
			}
		}
	}
}

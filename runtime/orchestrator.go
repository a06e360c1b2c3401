// Package runtime handles message fan-out, subscription lifecycles and background workers.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"outmentor/contract"
	"outmentor/domain"
	"outmentor/runtime/workers"
)

var _ contract.IOrchestrator = (*Orchestrator)(nil)

type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	hub            *Hub
	supervisor     *workers.Supervisor
	monitoring     *domain.Monitoring
	maxIdle        time.Duration
	metricInterval time.Duration
	queueSize      int
	started        bool
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor, hub *Hub,
	monitoring *domain.Monitoring, maxIdle, metricInterval time.Duration, queueSize int) *Orchestrator {
	return &Orchestrator{
		log:            log,
		hub:            hub,
		supervisor:     supervisor,
		monitoring:     monitoring,
		maxIdle:        maxIdle,
		metricInterval: metricInterval,
		queueSize:      queueSize,
	}
}

func (o *Orchestrator) Hub() contract.IHub {
	return o.hub
}

// Start registers the background workers and blocks while the supervisor runs them.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if !o.started {
		o.supervisor.Add(
			workers.NewIdleReaperWorker(o.log, o.hub, o.maxIdle),
			workers.NewTelemetryWorker(o.log, o.hub, o.monitoring, o.supervisor.Restarts, o.metricInterval, o.queueSize),
		)
		o.started = true
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the workers and ends every live subscription.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	o.hub.Shutdown()
}

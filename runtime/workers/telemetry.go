package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"outmentor/contract"
	"outmentor/domain"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically samples the process and the hub, publishes the
// sample to Monitoring and warns when subscriber queues fill up.
// Reading the hub stats only takes short per-channel locks.
type TelemetryWorker struct {
	log              *slog.Logger
	hub              contract.IHub
	monitoring       *domain.Monitoring
	restarts         func() int64
	metricInterval   time.Duration
	queueSize        int
	lowCapacityRatio float64
}

func NewTelemetryWorker(log *slog.Logger,
	hub contract.IHub,
	monitoring *domain.Monitoring,
	restarts func() int64,
	metricInterval time.Duration,
	queueSize int) *TelemetryWorker {
	return &TelemetryWorker{
		log:              log,
		hub:              hub,
		monitoring:       monitoring,
		restarts:         restarts,
		metricInterval:   metricInterval,
		queueSize:        queueSize,
		lowCapacityRatio: 0.8,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.monitoring.Update(w.sample(p))
		}
	}
}

func (w *TelemetryWorker) sample(p *process.Process) domain.RuntimeHealth {
	health := domain.RuntimeHealth{PID: p.Pid, SampledAt: time.Now().UTC()}

	if rss, cpu, status, err := selfStats(p); err != nil {
		w.log.Debug("Failed to collect self stats", "err", err)
	} else {
		health.RAM, health.CPU, health.PIDStatus = rss, cpu, status
	}

	stats := w.hub.Stats()
	health.Channels, health.Subscribers, health.Queued = stats.Channels, stats.Subscribers, stats.Queued
	if w.restarts != nil {
		health.WorkerRestarts = w.restarts()
	}

	w.log.Debug(fmt.Sprintf("Hub usage: %d channels | %d subscribers | %d queued | CPU %.2f%% | RAM %d",
		health.Channels, health.Subscribers, health.Queued, health.CPU, health.RAM))

	if capacity := health.Subscribers * w.queueSize; capacity > 0 &&
		float64(health.Queued) >= w.lowCapacityRatio*float64(capacity) {
		w.log.Warn(fmt.Sprintf("Subscriber queues nearly full: %d / %d", health.Queued, capacity))
	}
	return health
}

// selfStats retrieves memory, CPU and OS status of the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}

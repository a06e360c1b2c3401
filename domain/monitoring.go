package domain

import (
	"sync"
	"time"
)

// RuntimeHealth is one telemetry sample of the running server.
type RuntimeHealth struct {
	PID            int32     `json:"pid"`
	PIDStatus      string    `json:"pid_status"`
	CPU            float64   `json:"cpu_percent"`
	RAM            uint64    `json:"ram_bytes"`
	Channels       int       `json:"channels"`
	Subscribers    int       `json:"subscribers"`
	Queued         int       `json:"queued"`
	WorkerRestarts int64     `json:"worker_restarts"`
	SampledAt      time.Time `json:"sampled_at"`
}

// Monitoring holds the latest sample for readers such as the health endpoint.
type Monitoring struct {
	mu     sync.RWMutex
	latest RuntimeHealth
}

func NewMonitoring() *Monitoring {
	return &Monitoring{}
}

func (m *Monitoring) Update(h RuntimeHealth) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = h
}

func (m *Monitoring) Latest() RuntimeHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"outmentor/contract"
	"outmentor/errors"
)

const defaultRestartDelay = 200 * time.Millisecond

// Supervisor runs each worker in its own goroutine, recovers panics and
// restarts the crashed worker after a delay. A worker returning nil is done
// for good. Canceling the parent context stops everything; Run returns once
// all goroutines have exited.
var _ contract.ISupervisor = (*Supervisor)(nil)

type Supervisor struct {
	cancel       context.CancelFunc
	mu           sync.Mutex
	wg           sync.WaitGroup
	log          *slog.Logger
	workers      []contract.Worker
	restartDelay time.Duration
	restarts     atomic.Int64
}

func NewSupervisor(log *slog.Logger, restartDelay time.Duration) *Supervisor {
	if restartDelay <= 0 {
		restartDelay = defaultRestartDelay
	}
	return &Supervisor{log: log, restartDelay: restartDelay}
}

// Run starts every registered worker under a context derived from ctx and blocks until they all stop.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	workers := append([]contract.Worker(nil), s.workers...)
	s.mu.Unlock()
	defer cancel()

	for _, worker := range workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a worker under supervision.
// A failure in one worker must not stop the supervisor itself.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := s.runOnce(ctx, worker)
			if err == nil {
				// Terminated properly, never restart !
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.restarts.Add(1)
			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartDelay):
			}
		}
	}()
}

func (s *Supervisor) runOnce(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Restarts counts worker restarts since start-up.
func (s *Supervisor) Restarts() int64 {
	return s.restarts.Load()
}

// Stop cancels the supervised context; Run returns once every worker has exited.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

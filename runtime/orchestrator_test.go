package runtime

import (
	"context"
	"testing"
	"time"

	"outmentor/domain"
	"outmentor/errors"
	"outmentor/runtime/workers"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func Test_Orchestrator_Reaps_Idle_Subscriptions_And_Stops(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromString("DEBUG")
	hub := newHub(t, 8)
	monitoring := domain.NewMonitoring()
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0), hub, monitoring,
		30*time.Millisecond, 10*time.Millisecond, 8)

	done := make(chan error)
	go func() { done <- orchestrator.Start(context.Background()) }()

	// Given a subscription nobody touches
	sub, err := orchestrator.Hub().Subscribe(context.Background(), uuid.New())
	req.NoError(err)

	// Then the reaper ends it as idle
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		req.Fail("idle subscription was not reaped")
	}
	req.ErrorIs(sub.Err(), errors.ErrSubscriptionIdle)

	// And telemetry was published
	req.Eventually(func() bool { return !monitoring.Latest().SampledAt.IsZero() }, time.Second, 5*time.Millisecond)

	// When the orchestrator stops, live subscriptions end as unavailable
	live, err := orchestrator.Hub().Subscribe(context.Background(), uuid.New())
	req.NoError(err)
	orchestrator.Stop()
	req.ErrorIs(live.Err(), errors.ErrUnavailable)

	select {
	case err = <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("orchestrator did not stop")
	}
}

package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"outmentor/contract"
	"outmentor/domain"
	"outmentor/errors"
	"outmentor/mocks"
	"outmentor/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newHub(t *testing.T, queueSize int) *Hub {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewHub(log, repositories.NewMessageRepository(db, log, nil), queueSize)
}

func message(connectionID uuid.UUID, sender, content string) domain.Message {
	return domain.Message{ID: uuid.New(), ConnectionID: connectionID, SenderID: sender, Content: content, CreatedAt: time.Now().UTC()}
}

// collect reads n messages or fails after timeout.
func collect(t *testing.T, sub contract.ISubscription, n int) []domain.Message {
	t.Helper()
	var res []domain.Message
	timeout := time.After(5 * time.Second)
	for len(res) < n {
		select {
		case m, ok := <-sub.Messages():
			if !ok {
				t.Fatalf("subscription ended after %d messages: %v", len(res), sub.Err())
			}
			res = append(res, m)
		case <-timeout:
			t.Fatalf("only %d of %d messages received", len(res), n)
		}
	}
	return res
}

func requireDense(t *testing.T, messages []domain.Message) {
	t.Helper()
	for i, m := range messages {
		require.Equal(t, uint64(i+1), m.Seq, "position %d", i)
	}
}

func TestHub_Subscribe_Delivers_Backfill_Then_Live(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newHub(t, 16)
	connectionID := uuid.New()

	// Given two messages already sent
	for _, text := range []string{"um", "dois"} {
		_, err := hub.Publish(ctx, message(connectionID, "m1", text))
		req.NoError(err)
	}

	// When a subscriber joins and a third message is sent
	sub, err := hub.Subscribe(ctx, connectionID)
	req.NoError(err)
	defer sub.Cancel()
	_, err = hub.Publish(ctx, message(connectionID, "t1", "três"))
	req.NoError(err)

	// Then it sees the whole conversation in order
	got := collect(t, sub, 3)
	requireDense(t, got)
	req.Equal("três", got[2].Content)
	req.Equal("t1", got[2].SenderID)
}

func TestHub_Concurrent_Sends_Are_Gap_Free_And_Duplicate_Free(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newHub(t, 1024)
	connectionID := uuid.New()
	senders, perSender := 4, 25
	total := senders * perSender

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, total)
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			<-start
			for i := 0; i < perSender; i++ {
				if _, err := hub.Publish(ctx, message(connectionID, fmt.Sprint(s), fmt.Sprint(i))); err != nil {
					errs <- err
				}
			}
		}(s)
	}

	// Given a first subscriber before any traffic and a second one joining mid-stream
	early, err := hub.Subscribe(ctx, connectionID)
	req.NoError(err)
	defer early.Cancel()
	close(start)
	time.Sleep(5 * time.Millisecond)
	late, err := hub.Subscribe(ctx, connectionID)
	req.NoError(err)
	defer late.Cancel()

	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then both see 1..N exactly once
	requireDense(t, collect(t, early, total))
	requireDense(t, collect(t, late, total))
}

func TestHub_Overflow_Drops_Slow_Subscriber(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newHub(t, 2)
	connectionID := uuid.New()

	slow, err := hub.Subscribe(ctx, connectionID)
	req.NoError(err)
	fast, err := hub.Subscribe(ctx, connectionID)
	req.NoError(err)
	defer fast.Cancel()

	received := make(chan domain.Message, 16)
	go func() {
		for m := range fast.Messages() {
			received <- m
		}
	}()

	// When more messages are sent than the slow queue can hold, while nobody reads it
	for i := 0; i < 6; i++ {
		_, err = hub.Publish(ctx, message(connectionID, "m1", fmt.Sprint(i)))
		req.NoError(err)
		// Let the fast consumer keep up
		time.Sleep(5 * time.Millisecond)
	}

	// Then the slow subscriber is dropped with a resource exhausted error
	select {
	case <-slow.Done():
	case <-time.After(time.Second):
		req.Fail("slow subscriber was not dropped")
	}
	req.ErrorIs(slow.Err(), errors.ErrResourceExhausted)

	// And the sender and the other subscriber were not affected
	for i := 0; i < 6; i++ {
		select {
		case m := <-received:
			req.Equal(uint64(i+1), m.Seq)
		case <-time.After(time.Second):
			req.Fail("fast subscriber missed messages")
		}
	}

	// And a new subscription backfills everything
	again, err := hub.Subscribe(ctx, connectionID)
	req.NoError(err)
	defer again.Cancel()
	requireDense(t, collect(t, again, 6))
}

func TestHub_Cancel_Is_Idempotent_And_Releases_Channel(t *testing.T) {
	req := require.New(t)
	hub := newHub(t, 4)
	connectionID := uuid.New()

	sub, err := hub.Subscribe(context.Background(), connectionID)
	req.NoError(err)
	req.Equal(1, hub.Stats().Subscribers)

	sub.Cancel()
	sub.Cancel()

	_, open := <-sub.Messages()
	req.False(open)
	req.NoError(sub.Err())
	req.Equal(contract.HubStats{}, hub.Stats())
}

func TestHub_ReapIdle(t *testing.T) {
	req := require.New(t)
	hub := newHub(t, 4)
	connectionID := uuid.New()

	idle, err := hub.Subscribe(context.Background(), connectionID)
	req.NoError(err)
	active, err := hub.Subscribe(context.Background(), connectionID)
	req.NoError(err)
	defer active.Cancel()

	time.Sleep(30 * time.Millisecond)
	active.Touch()

	req.Equal(1, hub.ReapIdle(20*time.Millisecond))
	req.ErrorIs(idle.Err(), errors.ErrSubscriptionIdle)
	req.NoError(active.Err())
	req.Equal(1, hub.Stats().Subscribers)
}

func TestHub_Shutdown_Ends_Everything(t *testing.T) {
	req := require.New(t)
	hub := newHub(t, 4)

	a, err := hub.Subscribe(context.Background(), uuid.New())
	req.NoError(err)
	b, err := hub.Subscribe(context.Background(), uuid.New())
	req.NoError(err)

	hub.Shutdown()

	req.ErrorIs(a.Err(), errors.ErrUnavailable)
	req.ErrorIs(b.Err(), errors.ErrUnavailable)
	req.Equal(contract.HubStats{}, hub.Stats())
}

func TestHub_Failed_Append_Reaches_Nobody(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := mocks.NewMockIMessageRepository(gomock.NewController(t))
	hub := NewHub(logs.GetLoggerFromLevel(slog.LevelDebug), store, 8)
	t.Cleanup(hub.Shutdown)
	connectionID := uuid.New()

	// Given an empty log and a store that fails the first append
	store.EXPECT().List(gomock.Any(), connectionID, uint64(0)).Return(nil, nil)
	gomock.InOrder(
		store.EXPECT().Append(gomock.Any(), gomock.Any()).
			Return(domain.Message{}, fmt.Errorf("%w: disk full", errors.ErrUnavailable)),
		store.EXPECT().Append(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, m domain.Message) (domain.Message, error) {
				m.Seq = 1
				return m, nil
			}),
	)
	sub, err := hub.Subscribe(ctx, connectionID)
	req.NoError(err)
	defer sub.Cancel()

	// When the first send fails
	_, err = hub.Publish(ctx, message(connectionID, "m1", "perdida"))
	req.ErrorIs(err, errors.ErrUnavailable)

	// Then the subscriber only ever sees the stored message
	stored, err := hub.Publish(ctx, message(connectionID, "m1", "Olá"))
	req.NoError(err)
	got := collect(t, sub, 1)
	req.Equal(stored, got[0])
	select {
	case m := <-sub.Messages():
		req.Failf("unexpected delivery", "%+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

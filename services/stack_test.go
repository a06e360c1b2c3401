package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"outmentor/domain"
	"outmentor/domain/search"
	"outmentor/errors"
	"outmentor/mocks"
	"outmentor/repositories"
	"outmentor/runtime"
	index "outmentor/search"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// stack wires the services on an embedded store, the way the server does.
type stack struct {
	services Services
	hub      *runtime.Hub
}

func newStack(t *testing.T, policy Policy, queueSize int) stack {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	limit := 4
	profiles := repositories.NewProfileRepository(db, log)
	connections := repositories.NewConnectionRepository(db, log)
	messages := repositories.NewMessageRepository(db, log, &limit)
	meetings := repositories.NewMeetingRepository(db, log)

	hub := runtime.NewHub(log, messages, queueSize)
	t.Cleanup(hub.Shutdown)

	links := mocks.NewMockMeetingLinkProvider(gomock.NewController(t))
	links.EXPECT().NewLink(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, at time.Time) (string, error) {
			return fmt.Sprintf("https://meet.test/%s/%d", id, at.Unix()), nil
		}).AnyTimes()

	return stack{
		hub: hub,
		services: Services{
			Log:         log,
			Directory:   NewDirectoryService(log, profiles, index.NewProfileIndex(writer, log), search.DefaultCap),
			Connections: NewConnectionService(log, profiles, connections, policy),
			Channel:     NewChannelService(log, connections, messages, hub, 500),
			Meetings:    NewMeetingService(log, connections, meetings, links),
		},
	}
}

// register creates the profile of a new session.
func (s stack) register(t *testing.T, profile domain.Profile) *Session {
	t.Helper()
	session := s.services.NewSession(profile.ID)
	_, err := session.Register(context.Background(), profile)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

// connect makes mentor and team an accepted pair.
func (s stack) connect(t *testing.T, mentor, team *Session) domain.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := mentor.Initiate(ctx, team.ProfileID())
	require.NoError(t, err)
	if conn.Status == domain.StatusPending {
		conn, err = team.Respond(ctx, conn.ID, true)
		require.NoError(t, err)
	}
	return conn
}

// receive reads n messages from a feed or fails after a deadline.
func receive(t *testing.T, feed *Feed, n int) []domain.Message {
	t.Helper()
	var res []domain.Message
	timeout := time.After(5 * time.Second)
	for len(res) < n {
		select {
		case message, ok := <-feed.Messages():
			require.True(t, ok, "feed ended early: %v", feed.Err())
			res = append(res, message)
		case <-timeout:
			require.FailNow(t, "timed out", "received %d of %d messages", len(res), n)
		}
	}
	return res
}

func requireDense(t *testing.T, messages []domain.Message) {
	t.Helper()
	for i, message := range messages {
		require.Equal(t, uint64(i+1), message.Seq)
	}
}

func requireForbidden(t *testing.T, err error) {
	t.Helper()
	require.True(t, errors.Is(err, errors.ErrForbidden), "expected forbidden, got %v", err)
}

package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"outmentor/domain"
	"outmentor/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newPending(mentorID, teamID, initiator string) domain.Connection {
	return domain.Connection{
		ID:          uuid.New(),
		MentorID:    mentorID,
		TeamID:      teamID,
		InitiatorID: initiator,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

func Test_Initiate_Is_Idempotent_Per_Pair(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewConnectionRepository(openDB(t), slog.Default())

	// Given the mentor initiates
	first, created, err := repository.Initiate(ctx, newPending("m1", "t1", "m1"))
	req.NoError(err)
	req.True(created)

	// When the team initiates on the same pair
	second, created, err := repository.Initiate(ctx, newPending("m1", "t1", "t1"))

	// Then the existing record is returned unchanged
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, second.ID)
	req.Equal("m1", second.InitiatorID)

	both, err := repository.ListByMember(ctx, "t1", "")
	req.NoError(err)
	req.Len(both, 1)
}

func Test_Initiate_After_Decline_Creates_New_Record(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewConnectionRepository(openDB(t), slog.Default())

	first, _, err := repository.Initiate(ctx, newPending("m1", "t1", "m1"))
	req.NoError(err)
	declined, err := first.Respond("t1", false, time.Now().UTC())
	req.NoError(err)
	req.NoError(repository.Update(ctx, declined, domain.StatusPending))

	second, created, err := repository.Initiate(ctx, newPending("m1", "t1", "t1"))
	req.NoError(err)
	req.True(created)
	req.NotEqual(first.ID, second.ID)

	all, err := repository.ListByMember(ctx, "m1", "")
	req.NoError(err)
	req.Len(all, 2)

	pending, err := repository.ListByMember(ctx, "m1", domain.StatusPending)
	req.NoError(err)
	req.Len(pending, 1)
	req.Equal(second.ID, pending[0].ID)
}

func Test_Update_Checks_Expected_Status(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewConnectionRepository(openDB(t), slog.Default())

	conn, _, err := repository.Initiate(ctx, newPending("m1", "t1", "m1"))
	req.NoError(err)
	accepted, err := conn.Respond("t1", true, time.Now().UTC())
	req.NoError(err)
	req.NoError(repository.Update(ctx, accepted, domain.StatusPending))

	// When a second decision races on the already accepted record
	declined, err := conn.Respond("t1", false, time.Now().UTC())
	req.NoError(err)
	err = repository.Update(ctx, declined, domain.StatusPending)

	// Then it is refused
	req.ErrorIs(err, errors.ErrInvalidState)
	stored, err := repository.Get(ctx, conn.ID)
	req.NoError(err)
	req.Equal(domain.StatusAccepted, stored.Status)
}

func Test_Get_Unknown_Connection(t *testing.T) {
	repository := NewConnectionRepository(openDB(t), slog.Default())
	_, err := repository.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func Test_Get_Merges_Last_Message_Time(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	connections := NewConnectionRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default(), nil)

	conn, _, err := connections.Initiate(ctx, newPending("m1", "t1", "m1"))
	req.NoError(err)
	req.True(conn.LastMessageAt.IsZero())

	at := time.Now().UTC().Add(time.Minute)
	_, err = messages.Append(ctx, domain.Message{ID: uuid.New(), ConnectionID: conn.ID, SenderID: "m1", Content: "Olá", CreatedAt: at})
	req.NoError(err)

	stored, err := connections.Get(ctx, conn.ID)
	req.NoError(err)
	req.Equal(at, stored.LastMessageAt)
}
